package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserContext(t *testing.T) {
	ctx := SetUserContext(context.Background(), 7, "a@b.com", "ADMIN")

	id, ok := GetUserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, uint(7), id)
	assert.Equal(t, "a@b.com", GetUserEmailFromContext(ctx))
	assert.Equal(t, "ADMIN", GetUserRoleFromContext(ctx))

	_, ok = GetUserIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = GetUserIDFromContext(SetUserContext(context.Background(), 0, "", ""))
	assert.False(t, ok)
}

func TestPage(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		wantLimit   int
		wantOffset  int
	}{
		{"defaults", 0, 0, DefaultPageSize, 0},
		{"third page", 3, 10, 10, 20},
		{"clamped", 2, 1000, MaxPageSize, MaxPageSize},
		{"negative page", -4, 5, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := Page(tt.page, tt.limit)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestPointers(t *testing.T) {
	assert.Equal(t, "x", *StrPtr("x"))
	assert.Equal(t, "", PtrString(nil))
	assert.Equal(t, "y", PtrString(StrPtr("y")))
}
