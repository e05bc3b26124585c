package device

import (
	"context"
	"errors"
	"time"

	"github.com/sharinghood-api/internal/domain"
	"github.com/sharinghood-api/internal/pkg/id"
)

// Store is the subset of the device repository Resolve needs.
type Store interface {
	GetByUUID(ctx context.Context, uuid string) (*domain.Device, error)
	Put(ctx context.Context, d *domain.Device) error
}

// Resolve returns the device registered under deviceUUID, or creates one for userID.
// A device found under another user is re-assigned to userID.
func Resolve(ctx context.Context, repo Store, deviceUUID *string, userID string) (*domain.Device, error) {
	if deviceUUID != nil && *deviceUUID != "" {
		d, err := repo.GetByUUID(ctx, *deviceUUID)
		switch {
		case err == nil && d.UserID == userID:
			return d, nil
		case err == nil:
			d.UserID = userID
			d.Token = nil
			d.UpdatedAt = time.Now().UTC()
			if err := repo.Put(ctx, d); err != nil {
				return nil, err
			}
			return d, nil
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}
	devUUID := id.New()
	if deviceUUID != nil && *deviceUUID != "" {
		devUUID = *deviceUUID
	}
	now := time.Now().UTC()
	d := &domain.Device{
		DeviceID:  id.New(),
		UUID:      devUUID,
		UserID:    userID,
		Enable:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Put(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}
