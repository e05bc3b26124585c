package community

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sharinghood-api/internal/application/membership"
	"github.com/sharinghood-api/internal/domain"
	"github.com/sharinghood-api/internal/pkg/id"
	"github.com/sharinghood-api/internal/pkg/paginate"
	pkgtoken "github.com/sharinghood-api/internal/pkg/token"
)

const (
	codeLength   = 6
	codeAttempts = 5
)

type Service interface {
	Create(ctx context.Context, userID string, req domain.CreateCommunityRequest) (*domain.Community, error)
	FindByCode(ctx context.Context, code string) (*domain.Community, error)
	// Join is idempotent: joining a community twice returns it unchanged.
	Join(ctx context.Context, userID, code string) (*domain.Community, error)
	ListMine(ctx context.Context, userID string) ([]domain.CommunitySummary, error)
	Members(ctx context.Context, userID, communityID string, p paginate.Params) (*paginate.Page[domain.Profile], error)
}

type communityStore interface {
	Create(ctx context.Context, c *domain.Community, creator *domain.Member) error
	GetByCode(ctx context.Context, code string) (*domain.Community, error)
	BatchGet(ctx context.Context, ids []string) ([]domain.Community, error)
}

type memberStore interface {
	Put(ctx context.Context, m *domain.Member) error
	IsMember(ctx context.Context, communityID, userID string) (bool, error)
	ListCommunityIDs(ctx context.Context, userID string) ([]string, error)
	ByCommunity(communityID string) paginate.Source[domain.Member]
}

type userStore interface {
	BatchGet(ctx context.Context, ids []string) ([]domain.User, error)
}

type counterReader interface {
	ReadAll(ctx context.Context, userID string, communityIDs []string) map[string]int
}

type service struct {
	communities communityStore
	members     memberStore
	users       userStore
	counter     counterReader
}

type ServiceDeps struct {
	CommunityRepo communityStore
	MemberRepo    memberStore
	UserRepo      userStore
	Counter       counterReader
}

func NewService(deps ServiceDeps) Service {
	return &service{
		communities: deps.CommunityRepo,
		members:     deps.MemberRepo,
		users:       deps.UserRepo,
		counter:     deps.Counter,
	}
}

func (s *service) Create(ctx context.Context, userID string, req domain.CreateCommunityRequest) (*domain.Community, error) {
	code, err := s.freeCode(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	c := &domain.Community{
		CommunityID: id.New(),
		Name:        strings.TrimSpace(req.Name),
		Code:        code,
		ZipCode:     req.ZipCode,
		CreatorID:   userID,
		CreatedAt:   now,
	}
	if err := s.communities.Create(ctx, c, &domain.Member{CommunityID: c.CommunityID, UserID: userID, JoinedAt: now}); err != nil {
		return nil, err
	}
	return c, nil
}

// freeCode draws join codes until one is not in use.
func (s *service) freeCode(ctx context.Context) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := pkgtoken.NewCode(codeLength)
		if err != nil {
			return "", err
		}
		_, err = s.communities.GetByCode(ctx, code)
		if errors.Is(err, domain.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("could not allocate a join code: %w", domain.ErrConflict)
}

func (s *service) FindByCode(ctx context.Context, code string) (*domain.Community, error) {
	return s.communities.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

func (s *service) Join(ctx context.Context, userID, code string) (*domain.Community, error) {
	c, err := s.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	err = s.members.Put(ctx, &domain.Member{CommunityID: c.CommunityID, UserID: userID, JoinedAt: time.Now().UTC()})
	if err != nil && !errors.Is(err, domain.ErrConflict) {
		return nil, err
	}
	return c, nil
}

func (s *service) ListMine(ctx context.Context, userID string) ([]domain.CommunitySummary, error) {
	ids, err := s.members.ListCommunityIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.CommunitySummary{}, nil
	}
	communities, err := s.communities.BatchGet(ctx, ids)
	if err != nil {
		return nil, err
	}
	counts := s.counter.ReadAll(ctx, userID, ids)
	out := make([]domain.CommunitySummary, len(communities))
	for i, c := range communities {
		out[i] = domain.CommunitySummary{Community: c, UnreadCount: counts[c.CommunityID]}
	}
	return out, nil
}

func (s *service) Members(ctx context.Context, userID, communityID string, p paginate.Params) (*paginate.Page[domain.Profile], error) {
	if err := membership.Require(ctx, s.members, communityID, userID); err != nil {
		return nil, err
	}
	page, err := paginate.Fetch(ctx, p, s.members.ByCommunity(communityID))
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(page.Items))
	for i, m := range page.Items {
		ids[i] = m.UserID
	}
	byID := map[string]domain.Profile{}
	if len(ids) > 0 {
		users, err := s.users.BatchGet(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range users {
			byID[users[i].UserID] = users[i].Profile()
		}
	}
	return paginate.Map(page, func(m domain.Member) domain.Profile {
		if pr, ok := byID[m.UserID]; ok {
			return pr
		}
		return domain.Profile{UserID: m.UserID}
	}), nil
}
