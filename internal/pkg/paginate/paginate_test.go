package paginate

import (
	"context"
	"errors"
	"math"
	"net/url"
	"testing"

	"github.com/sharinghood-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource serves a fixed, already ordered slice.
type sliceSource struct {
	items     []int
	countErr  error
	listCalls int
}

func (s *sliceSource) Count(context.Context) (int, error) {
	return len(s.items), s.countErr
}

func (s *sliceSource) List(_ context.Context, offset, limit int) ([]int, error) {
	s.listCalls++
	end := offset + limit
	if end > len(s.items) {
		end = len(s.items)
	}
	return s.items[offset:end], nil
}

func posts(n int) *sliceSource {
	s := &sliceSource{}
	for i := n; i > 0; i-- {
		s.items = append(s.items, i)
	}
	return s
}

func TestFetch_FirstPageOfTwentyFive(t *testing.T) {
	pg, err := Fetch[int](context.Background(), Params{Offset: 0, Limit: 10}, posts(25))
	require.NoError(t, err)
	assert.Len(t, pg.Items, 10)
	assert.True(t, pg.HasMore)
	require.NotNil(t, pg.TotalCount)
	assert.Equal(t, 25, *pg.TotalCount)
	assert.Equal(t, 25, pg.Items[0])
}

func TestFetch_LastPartialPage(t *testing.T) {
	pg, err := Fetch[int](context.Background(), Params{Offset: 20, Limit: 10}, posts(25))
	require.NoError(t, err)
	assert.Len(t, pg.Items, 5)
	assert.False(t, pg.HasMore)
}

func TestFetch_ExactBoundary(t *testing.T) {
	pg, err := Fetch[int](context.Background(), Params{Offset: 15, Limit: 10}, posts(25))
	require.NoError(t, err)
	assert.Len(t, pg.Items, 10)
	assert.False(t, pg.HasMore)
}

func TestFetch_ZeroLimitShortCircuits(t *testing.T) {
	src := posts(25)
	src.countErr = errors.New("must not be called")

	for _, offset := range []int{0, 7, 1000} {
		pg, err := Fetch[int](context.Background(), Params{Offset: offset, Limit: 0}, src)
		require.NoError(t, err)
		assert.Empty(t, pg.Items)
		assert.NotNil(t, pg.Items)
		assert.True(t, pg.HasMore)
		assert.Nil(t, pg.TotalCount)
	}
	assert.Zero(t, src.listCalls)
}

func TestFetch_HasMoreInvariant(t *testing.T) {
	for total := 0; total <= 12; total++ {
		for offset := 0; offset <= 14; offset++ {
			for limit := 1; limit <= 5; limit++ {
				pg, err := Fetch[int](context.Background(), Params{Offset: offset, Limit: limit}, posts(total))
				require.NoError(t, err)
				assert.Equal(t, offset+limit < total, pg.HasMore, "total=%d offset=%d limit=%d", total, offset, limit)
				assert.LessOrEqual(t, len(pg.Items), limit)
			}
		}
	}
}

func TestFetch_OffsetPastEndSkipsList(t *testing.T) {
	src := posts(3)
	pg, err := Fetch[int](context.Background(), Params{Offset: 5, Limit: 2}, src)
	require.NoError(t, err)
	assert.Empty(t, pg.Items)
	assert.False(t, pg.HasMore)
	assert.Zero(t, src.listCalls)
}

func TestFetch_HugeOffsetHasNoMore(t *testing.T) {
	src := posts(25)
	pg, err := Fetch[int](context.Background(), Params{Offset: math.MaxInt - 5, Limit: 10}, src)
	require.NoError(t, err)
	assert.Empty(t, pg.Items)
	assert.False(t, pg.HasMore)
	require.NotNil(t, pg.TotalCount)
	assert.Equal(t, 25, *pg.TotalCount)
	assert.Zero(t, src.listCalls)

	pg = New([]int{1}, Params{Offset: math.MaxInt, Limit: MaxLimit}, 25)
	assert.False(t, pg.HasMore)
}

func TestFetch_NegativeRejected(t *testing.T) {
	_, err := Fetch[int](context.Background(), Params{Offset: -1, Limit: 10}, posts(3))
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestFetch_CountErrorPropagates(t *testing.T) {
	src := posts(3)
	src.countErr = errors.New("dynamo down")
	_, err := Fetch[int](context.Background(), Params{Limit: 2}, src)
	assert.ErrorContains(t, err, "dynamo down")
}

func TestFromQuery(t *testing.T) {
	p, err := FromQuery(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, Params{Offset: 0, Limit: DefaultLimit}, p)

	p, err = FromQuery(url.Values{"offset": {"20"}, "limit": {"0"}})
	require.NoError(t, err)
	assert.Equal(t, Params{Offset: 20, Limit: 0}, p)

	p, err = FromQuery(url.Values{"limit": {"500"}})
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, p.Limit)

	_, err = FromQuery(url.Values{"limit": {"ten"}})
	assert.True(t, errors.Is(err, domain.ErrBadRequest))

	_, err = FromQuery(url.Values{"offset": {"-3"}})
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestMap(t *testing.T) {
	total := 4
	pg := &Page[int]{Items: []int{1, 2}, HasMore: true, TotalCount: &total}
	out := Map(pg, func(i int) string { return string(rune('a' + i)) })
	assert.Equal(t, []string{"b", "c"}, out.Items)
	assert.True(t, out.HasMore)
	assert.Equal(t, &total, out.TotalCount)
}
