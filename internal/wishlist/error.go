package wishlist

import "errors"

var ErrItemNotFound = errors.New("wishlist item not found")
