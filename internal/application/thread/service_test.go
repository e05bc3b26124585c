package thread

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sharinghood-api/internal/application/activity"
	"github.com/sharinghood-api/internal/domain"
	"github.com/sharinghood-api/internal/pkg/paginate"
)

type mockThreadStore struct{ mock.Mock }

func (m *mockThreadStore) Put(ctx context.Context, t *domain.Thread) error {
	return m.Called(ctx, t).Error(0)
}
func (m *mockThreadStore) ByParent(parentID string) paginate.Source[domain.Thread] {
	return m.Called(parentID).Get(0).(paginate.Source[domain.Thread])
}

type mockPostStore struct{ mock.Mock }

func (m *mockPostStore) Get(ctx context.Context, postID string) (*domain.Post, error) {
	args := m.Called(ctx, postID)
	if p, _ := args.Get(0).(*domain.Post); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockRequestStore struct{ mock.Mock }

func (m *mockRequestStore) Get(ctx context.Context, requestID string) (*domain.ItemRequest, error) {
	args := m.Called(ctx, requestID)
	if r, _ := args.Get(0).(*domain.ItemRequest); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockMembers struct{ mock.Mock }

func (m *mockMembers) IsMember(ctx context.Context, communityID, userID string) (bool, error) {
	args := m.Called(ctx, communityID, userID)
	return args.Bool(0), args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, ev activity.Event) { m.Called(ctx, ev) }

type sliceSource []domain.Thread

func (s sliceSource) Count(context.Context) (int, error) { return len(s), nil }
func (s sliceSource) List(_ context.Context, offset, limit int) ([]domain.Thread, error) {
	end := offset + limit
	if end > len(s) {
		end = len(s)
	}
	return s[offset:end], nil
}

type mocks struct {
	ts *mockThreadStore
	ps *mockPostStore
	rs *mockRequestStore
	mm *mockMembers
	n  *mockNotifier
}

func newSvc() (Service, *mocks) {
	m := &mocks{&mockThreadStore{}, &mockPostStore{}, &mockRequestStore{}, &mockMembers{}, &mockNotifier{}}
	return NewService(ServiceDeps{ThreadRepo: m.ts, PostRepo: m.ps, RequestRepo: m.rs, MemberRepo: m.mm, Notifier: m.n}), m
}

func TestCreate_OnPostNotifiesOwner(t *testing.T) {
	svc, m := newSvc()
	m.ps.On("Get", mock.Anything, "p1").Return(&domain.Post{PostID: "p1", CommunityID: "c1", CreatorID: "owner", Title: "Drill"}, nil)
	m.mm.On("IsMember", mock.Anything, "c1", "u1").Return(true, nil)
	m.ts.On("Put", mock.Anything, mock.AnythingOfType("*domain.Thread")).Return(nil)
	m.n.On("Notify", mock.Anything, mock.MatchedBy(func(ev activity.Event) bool {
		return ev.Kind == activity.KindNewThread &&
			len(ev.RecipientIDs) == 1 && ev.RecipientIDs[0] == "owner" &&
			ev.RefID == "p1" && ev.ItemTitle == "Drill" && ev.Text == "Is it free on Sunday?"
	})).Return()

	th, err := svc.Create(context.Background(), "u1", domain.CreateThreadRequest{
		ParentID: "p1", ParentType: domain.ParentPost, Content: " Is it free on Sunday? ",
	})

	require.NoError(t, err)
	assert.Equal(t, "c1", th.CommunityID)
	m.n.AssertExpectations(t)
}

func TestCreate_OnRequest(t *testing.T) {
	svc, m := newSvc()
	m.rs.On("Get", mock.Anything, "r1").Return(&domain.ItemRequest{RequestID: "r1", CommunityID: "c1", CreatorID: "asker"}, nil)
	m.mm.On("IsMember", mock.Anything, "c1", "u1").Return(true, nil)
	m.ts.On("Put", mock.Anything, mock.Anything).Return(nil)
	m.n.On("Notify", mock.Anything, mock.Anything).Return()

	th, err := svc.Create(context.Background(), "u1", domain.CreateThreadRequest{ParentID: "r1", ParentType: domain.ParentRequest, Content: "I have one"})

	require.NoError(t, err)
	assert.Equal(t, domain.ParentRequest, th.ParentType)
}

func TestCreate_UnknownParent(t *testing.T) {
	svc, m := newSvc()
	m.ps.On("Get", mock.Anything, "p9").Return(nil, domain.ErrNotFound)

	_, err := svc.Create(context.Background(), "u1", domain.CreateThreadRequest{ParentID: "p9", ParentType: domain.ParentPost, Content: "x"})

	assert.True(t, errors.Is(err, domain.ErrNotFound))
	m.ts.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestByParent_BadType(t *testing.T) {
	svc, _ := newSvc()

	_, err := svc.ByParent(context.Background(), "u1", "x", "booking", paginate.Params{Limit: 10})

	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestByParent_Pages(t *testing.T) {
	svc, m := newSvc()
	m.ps.On("Get", mock.Anything, "p1").Return(&domain.Post{PostID: "p1", CommunityID: "c1"}, nil)
	m.mm.On("IsMember", mock.Anything, "c1", "u1").Return(true, nil)
	m.ts.On("ByParent", "p1").Return(paginate.Source[domain.Thread](sliceSource{{ThreadID: "t3"}, {ThreadID: "t2"}, {ThreadID: "t1"}}))

	page, err := svc.ByParent(context.Background(), "u1", "p1", domain.ParentPost, paginate.Params{Offset: 1, Limit: 5})

	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "t2", page.Items[0].ThreadID)
	assert.False(t, page.HasMore)
}
