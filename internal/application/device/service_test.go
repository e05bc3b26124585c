package device

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sharinghood-api/internal/domain"
)

type mockDeviceStore struct{ mock.Mock }

func (m *mockDeviceStore) ListByUser(ctx context.Context, userID string) ([]domain.Device, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Device), args.Error(1)
}
func (m *mockDeviceStore) Get(ctx context.Context, deviceID string) (*domain.Device, error) {
	args := m.Called(ctx, deviceID)
	if d, _ := args.Get(0).(*domain.Device); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockDeviceStore) Update(ctx context.Context, deviceID string, updates map[string]interface{}) error {
	return m.Called(ctx, deviceID, updates).Error(0)
}
func (m *mockDeviceStore) ForgetToken(ctx context.Context, deviceID string) error {
	return m.Called(ctx, deviceID).Error(0)
}
func (m *mockDeviceStore) SoftDelete(ctx context.Context, deviceID string) error {
	return m.Called(ctx, deviceID).Error(0)
}

func ptr[T any](v T) *T { return &v }

func owned() *domain.Device {
	return &domain.Device{DeviceID: "d1", UserID: "u1", Enable: true}
}

func TestGet_OtherUsersDeviceIsNotFound(t *testing.T) {
	repo := &mockDeviceStore{}
	repo.On("Get", mock.Anything, "d1").Return(owned(), nil)

	_, err := NewService(repo).Get(context.Background(), "u2", "d1")

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUpdate_SetsToken(t *testing.T) {
	repo := &mockDeviceStore{}
	repo.On("Get", mock.Anything, "d1").Return(owned(), nil)
	repo.On("Update", mock.Anything, "d1", map[string]interface{}{"token": "fcm-1"}).Return(nil)

	_, err := NewService(repo).Update(context.Background(), "u1", "d1", domain.UpdateDeviceRequest{Token: ptr("fcm-1")})

	require.NoError(t, err)
	repo.AssertNotCalled(t, "ForgetToken", mock.Anything, mock.Anything)
}

func TestUpdate_NilTokenForgetsIt(t *testing.T) {
	repo := &mockDeviceStore{}
	repo.On("Get", mock.Anything, "d1").Return(owned(), nil)
	repo.On("ForgetToken", mock.Anything, "d1").Return(nil)

	_, err := NewService(repo).Update(context.Background(), "u1", "d1", domain.UpdateDeviceRequest{})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestDelete_SoftDeletes(t *testing.T) {
	repo := &mockDeviceStore{}
	repo.On("Get", mock.Anything, "d1").Return(owned(), nil)
	repo.On("SoftDelete", mock.Anything, "d1").Return(nil)

	require.NoError(t, NewService(repo).Delete(context.Background(), "u1", "d1"))
	repo.AssertExpectations(t)
}

func TestDelete_DisabledDevice(t *testing.T) {
	repo := &mockDeviceStore{}
	d := owned()
	d.Enable = false
	repo.On("Get", mock.Anything, "d1").Return(d, nil)

	err := NewService(repo).Delete(context.Background(), "u1", "d1")

	assert.True(t, errors.Is(err, domain.ErrNotFound))
	repo.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
}
