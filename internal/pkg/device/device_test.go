package device

import (
	"context"
	"errors"
	"testing"

	"github.com/sharinghood-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) GetByUUID(ctx context.Context, uuid string) (*domain.Device, error) {
	args := m.Called(ctx, uuid)
	if d, _ := args.Get(0).(*domain.Device); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) Put(ctx context.Context, d *domain.Device) error {
	return m.Called(ctx, d).Error(0)
}

func strPtr(s string) *string { return &s }

func TestResolve_ExistingDeviceSameUser(t *testing.T) {
	s := &mockStore{}
	existing := &domain.Device{DeviceID: "d1", UUID: "uuid-1", UserID: "u1"}
	s.On("GetByUUID", mock.Anything, "uuid-1").Return(existing, nil)

	d, err := Resolve(context.Background(), s, strPtr("uuid-1"), "u1")

	require.NoError(t, err)
	assert.Equal(t, existing, d)
	s.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestResolve_ExistingDeviceOtherUser_Reassigned(t *testing.T) {
	s := &mockStore{}
	existing := &domain.Device{DeviceID: "d1", UUID: "uuid-1", UserID: "u2", Token: strPtr("fcm")}
	s.On("GetByUUID", mock.Anything, "uuid-1").Return(existing, nil)
	s.On("Put", mock.Anything, existing).Return(nil)

	d, err := Resolve(context.Background(), s, strPtr("uuid-1"), "u1")

	require.NoError(t, err)
	assert.Equal(t, "u1", d.UserID)
	assert.Nil(t, d.Token)
}

func TestResolve_NewDevice(t *testing.T) {
	s := &mockStore{}
	s.On("GetByUUID", mock.Anything, "uuid-9").Return(nil, domain.ErrNotFound)
	s.On("Put", mock.Anything, mock.AnythingOfType("*domain.Device")).Return(nil)

	d, err := Resolve(context.Background(), s, strPtr("uuid-9"), "u1")

	require.NoError(t, err)
	assert.Equal(t, "uuid-9", d.UUID)
	assert.True(t, d.Enable)
}

func TestResolve_LookupErrorPropagates(t *testing.T) {
	s := &mockStore{}
	s.On("GetByUUID", mock.Anything, "uuid-1").Return(nil, errors.New("dynamo down"))

	_, err := Resolve(context.Background(), s, strPtr("uuid-1"), "u1")
	assert.EqualError(t, err, "dynamo down")
}
