// Package membership guards community-scoped operations.
package membership

import (
	"context"
	"fmt"

	"github.com/sharinghood-api/internal/domain"
)

// Checker reports whether a user belongs to a community.
type Checker interface {
	IsMember(ctx context.Context, communityID, userID string) (bool, error)
}

// Require returns ErrForbidden unless userID is a member of communityID.
func Require(ctx context.Context, c Checker, communityID, userID string) error {
	ok, err := c.IsMember(ctx, communityID, userID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !ok {
		return fmt.Errorf("not a member of community %s: %w", communityID, domain.ErrForbidden)
	}
	return nil
}
