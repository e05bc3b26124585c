// Package itemrequest lets members ask their community for an item.
package itemrequest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sharinghood-api/internal/application/activity"
	"github.com/sharinghood-api/internal/application/membership"
	"github.com/sharinghood-api/internal/domain"
	"github.com/sharinghood-api/internal/logging"
	"github.com/sharinghood-api/internal/pkg/id"
	"github.com/sharinghood-api/internal/pkg/paginate"
)

type Service interface {
	// Create stores the request and notifies every other member of the community.
	Create(ctx context.Context, userID string, req domain.CreateItemRequest) (*domain.ItemRequest, error)
	Get(ctx context.Context, userID, requestID string) (*domain.ItemRequest, error)
	Inactivate(ctx context.Context, userID, requestID string) error
	ByCommunity(ctx context.Context, userID, communityID string, p paginate.Params) (*paginate.Page[domain.ItemRequest], error)
}

type requestStore interface {
	Put(ctx context.Context, req *domain.ItemRequest) error
	Get(ctx context.Context, requestID string) (*domain.ItemRequest, error)
	Inactivate(ctx context.Context, requestID string) error
	ActiveByCommunity(communityID string) paginate.Source[domain.ItemRequest]
}

type memberStore interface {
	membership.Checker
	ListUserIDs(ctx context.Context, communityID string) ([]string, error)
}

type notifier interface {
	Notify(ctx context.Context, ev activity.Event)
}

type service struct {
	repo     requestStore
	members  memberStore
	notifier notifier
}

type ServiceDeps struct {
	RequestRepo requestStore
	MemberRepo  memberStore
	Notifier    notifier
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.RequestRepo, members: deps.MemberRepo, notifier: deps.Notifier}
}

func (s *service) Create(ctx context.Context, userID string, req domain.CreateItemRequest) (*domain.ItemRequest, error) {
	if req.DateNeed != nil && req.DateReturn != nil && req.DateReturn.Before(*req.DateNeed) {
		return nil, fmt.Errorf("date_return must not be before date_need: %w", domain.ErrBadRequest)
	}
	if err := membership.Require(ctx, s.members, req.CommunityID, userID); err != nil {
		return nil, err
	}
	r := &domain.ItemRequest{
		RequestID:   id.New(),
		CommunityID: req.CommunityID,
		CreatorID:   userID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		ImageURL:    req.ImageURL,
		DateNeed:    req.DateNeed,
		DateReturn:  req.DateReturn,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, r); err != nil {
		return nil, err
	}
	recipients, err := s.members.ListUserIDs(ctx, req.CommunityID)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("request_id", r.RequestID).Msg("list members for request fan-out")
		return r, nil
	}
	s.notifier.Notify(ctx, activity.Event{
		Kind:         activity.KindNewRequest,
		CommunityID:  r.CommunityID,
		ActorID:      userID,
		RecipientIDs: recipients,
		RefID:        r.RequestID,
		ItemTitle:    r.Title,
	})
	return r, nil
}

func (s *service) Get(ctx context.Context, userID, requestID string) (*domain.ItemRequest, error) {
	r, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := membership.Require(ctx, s.members, r.CommunityID, userID); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *service) Inactivate(ctx context.Context, userID, requestID string) error {
	r, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if r.CreatorID != userID {
		return fmt.Errorf("only the creator can close a request: %w", domain.ErrForbidden)
	}
	return s.repo.Inactivate(ctx, requestID)
}

func (s *service) ByCommunity(ctx context.Context, userID, communityID string, p paginate.Params) (*paginate.Page[domain.ItemRequest], error) {
	if err := membership.Require(ctx, s.members, communityID, userID); err != nil {
		return nil, err
	}
	return paginate.Fetch(ctx, p, s.repo.ActiveByCommunity(communityID))
}
