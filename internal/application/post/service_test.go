package post

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sharinghood-api/internal/domain"
	"github.com/sharinghood-api/internal/pkg/paginate"
)

type mockPostStore struct{ mock.Mock }

func (m *mockPostStore) Put(ctx context.Context, p *domain.Post) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockPostStore) Get(ctx context.Context, postID string) (*domain.Post, error) {
	args := m.Called(ctx, postID)
	if p, _ := args.Get(0).(*domain.Post); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockPostStore) Update(ctx context.Context, postID string, updates map[string]interface{}) error {
	return m.Called(ctx, postID, updates).Error(0)
}
func (m *mockPostStore) ActiveByCommunity(communityID string) paginate.Source[domain.Post] {
	return m.Called(communityID).Get(0).(paginate.Source[domain.Post])
}

type mockMembers struct{ mock.Mock }

func (m *mockMembers) IsMember(ctx context.Context, communityID, userID string) (bool, error) {
	args := m.Called(ctx, communityID, userID)
	return args.Bool(0), args.Error(1)
}

// countingSource records how often the store was hit.
type countingSource struct {
	items     []domain.Post
	counts    int
	lists     int
	gotOffset int
	gotLimit  int
}

func (s *countingSource) Count(context.Context) (int, error) {
	s.counts++
	return len(s.items), nil
}
func (s *countingSource) List(_ context.Context, offset, limit int) ([]domain.Post, error) {
	s.lists++
	s.gotOffset, s.gotLimit = offset, limit
	end := offset + limit
	if end > len(s.items) {
		end = len(s.items)
	}
	return s.items[offset:end], nil
}

func posts(n int) []domain.Post {
	out := make([]domain.Post, n)
	for i := range out {
		out[i] = domain.Post{PostID: fmt.Sprintf("p%02d", n-i), IsActive: true}
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func newSvc() (Service, *mockPostStore, *mockMembers) {
	ps, mm := &mockPostStore{}, &mockMembers{}
	return NewService(ServiceDeps{PostRepo: ps, MemberRepo: mm}), ps, mm
}

func TestCreate_RequiresMembership(t *testing.T) {
	svc, ps, mm := newSvc()
	mm.On("IsMember", mock.Anything, "c1", "u1").Return(false, nil)

	_, err := svc.Create(context.Background(), "u1", domain.CreatePostRequest{CommunityID: "c1", Title: "Drill"})

	assert.True(t, errors.Is(err, domain.ErrForbidden))
	ps.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestCreate_ActiveByDefault(t *testing.T) {
	svc, ps, mm := newSvc()
	mm.On("IsMember", mock.Anything, "c1", "u1").Return(true, nil)
	ps.On("Put", mock.Anything, mock.AnythingOfType("*domain.Post")).Return(nil)

	p, err := svc.Create(context.Background(), "u1", domain.CreatePostRequest{CommunityID: "c1", Title: " Drill ", Condition: domain.ConditionGood})

	require.NoError(t, err)
	assert.True(t, p.IsActive)
	assert.Equal(t, "Drill", p.Title)
	assert.Equal(t, "u1", p.CreatorID)
}

func TestUpdate_OnlyCreator(t *testing.T) {
	svc, ps, _ := newSvc()
	ps.On("Get", mock.Anything, "p1").Return(&domain.Post{PostID: "p1", CreatorID: "u1"}, nil)

	_, err := svc.Update(context.Background(), "u2", "p1", domain.UpdatePostRequest{Title: ptr("x")})

	assert.True(t, errors.Is(err, domain.ErrForbidden))
	ps.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_AppliesFields(t *testing.T) {
	svc, ps, _ := newSvc()
	ps.On("Get", mock.Anything, "p1").Return(&domain.Post{PostID: "p1", CreatorID: "u1"}, nil)
	ps.On("Update", mock.Anything, "p1", map[string]interface{}{fieldTitle: "Ladder", fieldIsGiveaway: true}).Return(nil)

	_, err := svc.Update(context.Background(), "u1", "p1", domain.UpdatePostRequest{Title: ptr("Ladder"), IsGiveaway: ptr(true)})

	require.NoError(t, err)
	ps.AssertExpectations(t)
}

func TestInactivate_AlreadyInactiveIsNoop(t *testing.T) {
	svc, ps, _ := newSvc()
	ps.On("Get", mock.Anything, "p1").Return(&domain.Post{PostID: "p1", CreatorID: "u1"}, nil)

	require.NoError(t, svc.Inactivate(context.Background(), "u1", "p1"))
	ps.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestByCommunity_Pages(t *testing.T) {
	cases := []struct {
		name      string
		offset    int
		limit     int
		wantItems int
		wantMore  bool
	}{
		{"first page", 0, 10, 10, true},
		{"middle page", 10, 10, 10, true},
		{"last page", 20, 10, 5, false},
		{"exact end", 15, 10, 10, false},
		{"past the end", 30, 10, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, ps, mm := newSvc()
			mm.On("IsMember", mock.Anything, "c1", "u1").Return(true, nil)
			src := &countingSource{items: posts(25)}
			ps.On("ActiveByCommunity", "c1").Return(paginate.Source[domain.Post](src))

			page, err := svc.ByCommunity(context.Background(), "u1", "c1", paginate.Params{Offset: tc.offset, Limit: tc.limit})

			require.NoError(t, err)
			assert.Len(t, page.Items, tc.wantItems)
			assert.Equal(t, tc.wantMore, page.HasMore)
			assert.Equal(t, 25, *page.TotalCount)
		})
	}
}

func TestByCommunity_ZeroLimitSkipsStore(t *testing.T) {
	svc, ps, mm := newSvc()
	mm.On("IsMember", mock.Anything, "c1", "u1").Return(true, nil)
	src := &countingSource{items: posts(25)}
	ps.On("ActiveByCommunity", "c1").Return(paginate.Source[domain.Post](src))

	page, err := svc.ByCommunity(context.Background(), "u1", "c1", paginate.Params{Offset: 40, Limit: 0})

	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.True(t, page.HasMore)
	assert.Zero(t, src.counts)
	assert.Zero(t, src.lists)
}
