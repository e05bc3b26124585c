package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sharinghood-api/internal/application/session"
	"github.com/sharinghood-api/internal/domain"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) DisableByUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockStarter struct{ mock.Mock }

func (m *mockStarter) Start(ctx context.Context, u *domain.User, deviceUUID *string) (*session.LoginResult, error) {
	args := m.Called(ctx, u, deviceUUID)
	if r, _ := args.Get(0).(*session.LoginResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func newSvc(us *mockUserStore, ss *mockSessionStore, st *mockStarter) Service {
	return NewService(ServiceDeps{UserRepo: us, SessionRepo: ss, Sessions: st})
}

func ptr[T any](v T) *T { return &v }

// --- Register ---

func TestRegister_Success(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "ana@example.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	u, err := newSvc(us, nil, nil).Register(context.Background(), domain.CreateUserRequest{
		Email: " Ana@Example.com ", Password: "secret123", Name: "Ana",
	})

	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.True(t, u.Enable)
	assert.True(t, u.EmailNotify)
	assert.NotEmpty(t, u.UserID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret123")))
}

func TestRegister_EmailOptOut(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.Anything).Return(nil)

	u, err := newSvc(us, nil, nil).Register(context.Background(), domain.CreateUserRequest{
		Email: "ana@example.com", Password: "secret123", Name: "Ana", EmailNotify: ptr(false),
	})

	require.NoError(t, err)
	assert.False(t, u.EmailNotify)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "ana@example.com").Return(&domain.User{}, nil)

	_, err := newSvc(us, nil, nil).Register(context.Background(), domain.CreateUserRequest{Email: "ana@example.com"})

	assert.True(t, errors.Is(err, domain.ErrConflict))
	us.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRegister_LookupFailure(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, errors.New("dynamo down"))

	_, err := newSvc(us, nil, nil).Register(context.Background(), domain.CreateUserRequest{Email: "ana@example.com"})

	assert.EqualError(t, err, "dynamo down")
}

func TestRegisterWithSession_StartsSession(t *testing.T) {
	us, st := &mockUserStore{}, &mockStarter{}
	us.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.Anything).Return(nil)
	want := &session.LoginResult{Bearer: "bearer"}
	st.On("Start", mock.Anything, mock.AnythingOfType("*domain.User"), mock.Anything).Return(want, nil)

	got, err := newSvc(us, nil, st).RegisterWithSession(context.Background(), domain.CreateUserRequest{
		Email: "ana@example.com", Password: "secret123", Name: "Ana",
	})

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

// --- Update ---

func TestUpdate_PhoneResetsConfirmation(t *testing.T) {
	us := &mockUserStore{}
	us.On("Update", mock.Anything, "u1", map[string]interface{}{
		fieldPhone:        "+34600000000",
		fieldPhoneConfirm: false,
	}).Return(nil)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)

	_, err := newSvc(us, nil, nil).Update(context.Background(), "u1", domain.UpdateUserRequest{Phone: ptr("+34600000000")})

	require.NoError(t, err)
	us.AssertExpectations(t)
}

func TestUpdate_NoFieldsReturnsCurrent(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Name: "Ana"}, nil)

	u, err := newSvc(us, nil, nil).Update(context.Background(), "u1", domain.UpdateUserRequest{})

	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	us.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

// --- Deactivate / ChangePassword ---

func TestDeactivate_DisablesSessions(t *testing.T) {
	us, ss := &mockUserStore{}, &mockSessionStore{}
	us.On("Update", mock.Anything, "u1", map[string]interface{}{fieldEnable: false}).Return(nil)
	ss.On("DisableByUser", mock.Anything, "u1").Return(nil)

	require.NoError(t, newSvc(us, ss, nil).Deactivate(context.Background(), "u1"))
	ss.AssertExpectations(t)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("old-pass"), bcrypt.MinCost)
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", PasswordHash: string(hash)}, nil)

	err := newSvc(us, nil, nil).ChangePassword(context.Background(), "u1", "wrong", "new-pass")

	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestChangePassword_Success(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("old-pass"), bcrypt.MinCost)
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", PasswordHash: string(hash)}, nil)
	us.On("Update", mock.Anything, "u1", mock.Anything).Return(nil)

	require.NoError(t, newSvc(us, nil, nil).ChangePassword(context.Background(), "u1", "old-pass", "new-pass"))
	us.AssertCalled(t, "Update", mock.Anything, "u1", mock.Anything)
}
