package device

import (
	"context"
	"fmt"

	"github.com/sharinghood-api/internal/domain"
)

type Service interface {
	List(ctx context.Context, userID string) ([]domain.Device, error)
	Get(ctx context.Context, userID, deviceID string) (*domain.Device, error)
	// Update registers or replaces the push token. A nil token unregisters the device from push.
	Update(ctx context.Context, userID, deviceID string, req domain.UpdateDeviceRequest) (*domain.Device, error)
	Delete(ctx context.Context, userID, deviceID string) error
}

type deviceStore interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Device, error)
	Get(ctx context.Context, deviceID string) (*domain.Device, error)
	Update(ctx context.Context, deviceID string, updates map[string]interface{}) error
	ForgetToken(ctx context.Context, deviceID string) error
	SoftDelete(ctx context.Context, deviceID string) error
}

type service struct {
	repo deviceStore
}

func NewService(repo deviceStore) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, userID string) ([]domain.Device, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get hides devices of other users behind ErrNotFound.
func (s *service) Get(ctx context.Context, userID, deviceID string) (*domain.Device, error) {
	d, err := s.repo.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if d.UserID != userID || !d.Enable {
		return nil, fmt.Errorf("device not found: %w", domain.ErrNotFound)
	}
	return d, nil
}

func (s *service) Update(ctx context.Context, userID, deviceID string, req domain.UpdateDeviceRequest) (*domain.Device, error) {
	if _, err := s.Get(ctx, userID, deviceID); err != nil {
		return nil, err
	}
	var err error
	if req.Token == nil {
		err = s.repo.ForgetToken(ctx, deviceID)
	} else {
		err = s.repo.Update(ctx, deviceID, map[string]interface{}{"token": *req.Token})
	}
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, deviceID)
}

func (s *service) Delete(ctx context.Context, userID, deviceID string) error {
	if _, err := s.Get(ctx, userID, deviceID); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, deviceID)
}
