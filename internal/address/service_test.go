package address

import (
	"context"
	"testing"

	"storefront-be/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListByUser(ctx context.Context, userID uint) ([]*Address, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Address), args.Error(1)
}

func (m *MockRepository) GetForUser(ctx context.Context, id uuid.UUID, userID uint) (*Address, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Address), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, addr *Address) error {
	return m.Called(ctx, addr).Error(0)
}

func (m *MockRepository) Update(ctx context.Context, addr *Address) error {
	return m.Called(ctx, addr).Error(0)
}

func (m *MockRepository) Deactivate(ctx context.Context, id uuid.UUID, userID uint) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *MockRepository) SetDefault(ctx context.Context, id uuid.UUID, userID uint) error {
	return m.Called(ctx, id, userID).Error(0)
}

func validInput() Input {
	return Input{
		ReceiverName: "Asha",
		Phone:        "9876543210",
		Line1:        "12 MG Road",
		City:         "Pune",
		State:        "MH",
		PostalCode:   "411001",
	}
}

func TestService_Create(t *testing.T) {
	ctx := utils.SetUserContext(context.Background(), 1, "asha@example.com", "CUSTOMER")

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("Create", ctx, mock.MatchedBy(func(a *Address) bool {
			return a.UserID == 1 && a.Country == "India" && a.IsActive
		})).Return(nil)

		a, err := svc.Create(ctx, validInput())
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, a.ID)
		repo.AssertExpectations(t)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		_, err := NewService(new(MockRepository)).Create(context.Background(), validInput())
		assert.ErrorIs(t, err, ErrUserNotAuthenticated)
	})

	t.Run("Invalid", func(t *testing.T) {
		repo := new(MockRepository)
		in := validInput()
		in.PostalCode = ""

		_, err := NewService(repo).Create(ctx, in)
		assert.Error(t, err)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestService_Update_KeepsDefault(t *testing.T) {
	ctx := utils.SetUserContext(context.Background(), 1, "", "CUSTOMER")
	repo := new(MockRepository)
	svc := NewService(repo)
	id := uuid.New()

	repo.On("GetForUser", ctx, id, uint(1)).Return(&Address{ID: id, UserID: 1, IsDefault: true, IsActive: true}, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(a *Address) bool {
		return a.IsDefault && a.City == "Pune"
	})).Return(nil)

	_, err := svc.Update(ctx, id, validInput())
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestService_Get_NotFound(t *testing.T) {
	ctx := utils.SetUserContext(context.Background(), 1, "", "CUSTOMER")
	repo := new(MockRepository)
	id := uuid.New()

	repo.On("GetForUser", ctx, id, uint(1)).Return(nil, ErrAddressNotFound)

	_, err := NewService(repo).Get(ctx, id)
	assert.ErrorIs(t, err, ErrAddressNotFound)
}
