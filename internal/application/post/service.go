package post

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sharinghood-api/internal/application/membership"
	"github.com/sharinghood-api/internal/domain"
	"github.com/sharinghood-api/internal/pkg/id"
	"github.com/sharinghood-api/internal/pkg/paginate"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldImageURL    = "image_url"
	fieldCondition   = "condition"
	fieldIsGiveaway  = "is_giveaway"
	fieldIsActive    = "is_active"
)

type Service interface {
	Create(ctx context.Context, userID string, req domain.CreatePostRequest) (*domain.Post, error)
	Get(ctx context.Context, userID, postID string) (*domain.Post, error)
	Update(ctx context.Context, userID, postID string, req domain.UpdatePostRequest) (*domain.Post, error)
	Inactivate(ctx context.Context, userID, postID string) error
	ByCommunity(ctx context.Context, userID, communityID string, p paginate.Params) (*paginate.Page[domain.Post], error)
}

type postStore interface {
	Put(ctx context.Context, p *domain.Post) error
	Get(ctx context.Context, postID string) (*domain.Post, error)
	Update(ctx context.Context, postID string, updates map[string]interface{}) error
	ActiveByCommunity(communityID string) paginate.Source[domain.Post]
}

type service struct {
	repo    postStore
	members membership.Checker
}

type ServiceDeps struct {
	PostRepo   postStore
	MemberRepo membership.Checker
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.PostRepo, members: deps.MemberRepo}
}

func (s *service) Create(ctx context.Context, userID string, req domain.CreatePostRequest) (*domain.Post, error) {
	if err := membership.Require(ctx, s.members, req.CommunityID, userID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p := &domain.Post{
		PostID:      id.New(),
		CommunityID: req.CommunityID,
		CreatorID:   userID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Condition:   req.Condition,
		IsGiveaway:  req.IsGiveaway,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Get(ctx context.Context, userID, postID string) (*domain.Post, error) {
	p, err := s.repo.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := membership.Require(ctx, s.members, p.CommunityID, userID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) owned(ctx context.Context, userID, postID string) (*domain.Post, error) {
	p, err := s.repo.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.CreatorID != userID {
		return nil, fmt.Errorf("only the creator can change a post: %w", domain.ErrForbidden)
	}
	return p, nil
}

func (s *service) Update(ctx context.Context, userID, postID string, req domain.UpdatePostRequest) (*domain.Post, error) {
	p, err := s.owned(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates[fieldTitle] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updates[fieldDescription] = *req.Description
	}
	if req.ImageURL != nil {
		updates[fieldImageURL] = *req.ImageURL
	}
	if req.Condition != nil {
		updates[fieldCondition] = *req.Condition
	}
	if req.IsGiveaway != nil {
		updates[fieldIsGiveaway] = *req.IsGiveaway
	}
	if len(updates) == 0 {
		return p, nil
	}
	if err := s.repo.Update(ctx, postID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, postID)
}

func (s *service) Inactivate(ctx context.Context, userID, postID string) error {
	p, err := s.owned(ctx, userID, postID)
	if err != nil {
		return err
	}
	if !p.IsActive {
		return nil
	}
	return s.repo.Update(ctx, postID, map[string]interface{}{fieldIsActive: false})
}

func (s *service) ByCommunity(ctx context.Context, userID, communityID string, p paginate.Params) (*paginate.Page[domain.Post], error) {
	if err := membership.Require(ctx, s.members, communityID, userID); err != nil {
		return nil, err
	}
	return paginate.Fetch(ctx, p, s.repo.ActiveByCommunity(communityID))
}
