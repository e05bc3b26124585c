// Package thread handles comments on posts and requests.
package thread

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sharinghood-api/internal/application/activity"
	"github.com/sharinghood-api/internal/application/membership"
	"github.com/sharinghood-api/internal/domain"
	"github.com/sharinghood-api/internal/pkg/id"
	"github.com/sharinghood-api/internal/pkg/paginate"
)

type Service interface {
	// Create comments on a post or request and notifies its creator.
	Create(ctx context.Context, userID string, req domain.CreateThreadRequest) (*domain.Thread, error)
	ByParent(ctx context.Context, userID, parentID, parentType string, p paginate.Params) (*paginate.Page[domain.Thread], error)
}

type threadStore interface {
	Put(ctx context.Context, t *domain.Thread) error
	ByParent(parentID string) paginate.Source[domain.Thread]
}

type postStore interface {
	Get(ctx context.Context, postID string) (*domain.Post, error)
}

type requestStore interface {
	Get(ctx context.Context, requestID string) (*domain.ItemRequest, error)
}

type notifier interface {
	Notify(ctx context.Context, ev activity.Event)
}

type service struct {
	repo     threadStore
	posts    postStore
	requests requestStore
	members  membership.Checker
	notifier notifier
}

type ServiceDeps struct {
	ThreadRepo  threadStore
	PostRepo    postStore
	RequestRepo requestStore
	MemberRepo  membership.Checker
	Notifier    notifier
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:     deps.ThreadRepo,
		posts:    deps.PostRepo,
		requests: deps.RequestRepo,
		members:  deps.MemberRepo,
		notifier: deps.Notifier,
	}
}

// parent is what a thread needs to know about the post or request it hangs from.
type parent struct {
	communityID string
	creatorID   string
	title       string
}

func (s *service) parent(ctx context.Context, parentID, parentType string) (*parent, error) {
	switch parentType {
	case domain.ParentPost:
		p, err := s.posts.Get(ctx, parentID)
		if err != nil {
			return nil, err
		}
		return &parent{communityID: p.CommunityID, creatorID: p.CreatorID, title: p.Title}, nil
	case domain.ParentRequest:
		r, err := s.requests.Get(ctx, parentID)
		if err != nil {
			return nil, err
		}
		return &parent{communityID: r.CommunityID, creatorID: r.CreatorID, title: r.Title}, nil
	default:
		return nil, fmt.Errorf("parent_type must be post or request: %w", domain.ErrBadRequest)
	}
}

func (s *service) Create(ctx context.Context, userID string, req domain.CreateThreadRequest) (*domain.Thread, error) {
	par, err := s.parent(ctx, req.ParentID, req.ParentType)
	if err != nil {
		return nil, err
	}
	if err := membership.Require(ctx, s.members, par.communityID, userID); err != nil {
		return nil, err
	}
	t := &domain.Thread{
		ThreadID:    id.New(),
		ParentID:    req.ParentID,
		ParentType:  req.ParentType,
		CommunityID: par.communityID,
		CreatorID:   userID,
		Content:     strings.TrimSpace(req.Content),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, t); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, activity.Event{
		Kind:         activity.KindNewThread,
		CommunityID:  par.communityID,
		ActorID:      userID,
		RecipientIDs: []string{par.creatorID},
		RefID:        req.ParentID,
		ItemTitle:    par.title,
		Text:         t.Content,
	})
	return t, nil
}

func (s *service) ByParent(ctx context.Context, userID, parentID, parentType string, p paginate.Params) (*paginate.Page[domain.Thread], error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	par, err := s.parent(ctx, parentID, parentType)
	if err != nil {
		return nil, err
	}
	if err := membership.Require(ctx, s.members, par.communityID, userID); err != nil {
		return nil, err
	}
	return paginate.Fetch(ctx, p, s.repo.ByParent(parentID))
}
