package fetch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/soundmarket/internal/apiclient"
)

type row struct {
	ID   int64
	Name string
}

func (r row) GetID() int64 { return r.ID }

func TestQueryOmitsSentinelFilters(t *testing.T) {
	filters := NewFilters("role", "is_active", "search")
	assert.Empty(t, filters.Query().Encode())

	filters = filters.Set("search", "")
	assert.Empty(t, filters.Query().Encode())

	filters = filters.Set("role", "ALL")
	assert.Empty(t, filters.Query().Encode(), "sentinel matching ignores case")
}

func TestQueryKeepsDeclarationOrder(t *testing.T) {
	filters := NewFilters("role", "is_active", "search").
		Set("search", "bob").
		Set("role", "ARTISTE").
		Set("is_active", "true")
	assert.Equal(t, "role=ARTISTE&is_active=true&search=bob", filters.Query().Encode())
	assert.Equal(t, "bob", filters.Get("search"))
	assert.Equal(t, All, filters.Get("genre"))
}

func TestFiltersSetDoesNotAlias(t *testing.T) {
	base := NewFilters("status")
	changed := base.Set("status", "DRAFT")
	assert.Equal(t, All, base.Get("status"))
	assert.Equal(t, "DRAFT", changed.Get("status"))
	assert.False(t, base.Equal(changed))
}

func TestRefreshIsIdempotent(t *testing.T) {
	rows := []row{{ID: 2, Name: "b"}, {ID: 1, Name: "a"}}
	slot := NewSlot("rows", func(ctx context.Context, _ Filters) ([]row, error) {
		return append([]row(nil), rows...), nil
	})

	require.NoError(t, slot.Mount(context.Background()))
	first := slot.Data()
	require.NoError(t, slot.Refresh(context.Background()))
	assert.Equal(t, first, slot.Data())
	assert.Equal(t, rows, slot.Data())
	assert.False(t, slot.Loading())
}

func TestSetFiltersSkipsUnchanged(t *testing.T) {
	var calls int32
	slot := NewSlot("rows", func(ctx context.Context, f Filters) ([]row, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	}, WithFilters(NewFilters("status")))

	ctx := context.Background()
	require.NoError(t, slot.Mount(ctx))
	require.NoError(t, slot.SetFilters(ctx, NewFilters("status")))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	require.NoError(t, slot.SetFilter(ctx, "status", "DRAFT"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, "DRAFT", slot.Filters().Get("status"))
}

func TestFailureKeepsPreviousData(t *testing.T) {
	fail := false
	slot := NewSlot("rows", func(ctx context.Context, _ Filters) ([]row, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return []row{{ID: 1}}, nil
	})

	ctx := context.Background()
	require.NoError(t, slot.Mount(ctx))
	fail = true
	err := slot.Refresh(ctx)
	require.Error(t, err)

	state := slot.Snapshot()
	assert.Equal(t, []row{{ID: 1}}, state.Data)
	assert.True(t, state.Loaded)
	assert.EqualError(t, state.Err, "boom")
	assert.False(t, state.Loading)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	slot := NewSlot("users", func(ctx context.Context, f Filters) ([]row, error) {
		if f.Get("search") == "slow" {
			close(entered)
			<-release
			return []row{{ID: 1, Name: "stale"}}, nil
		}
		return []row{{ID: 2, Name: "fresh"}}, nil
	}, WithFilters(NewFilters("search")))

	ctx := context.Background()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = slot.SetFilter(ctx, "search", "slow")
	}()

	<-entered
	assert.True(t, slot.Loading())
	require.NoError(t, slot.SetFilter(ctx, "search", "fast"))
	assert.Equal(t, []row{{ID: 2, Name: "fresh"}}, slot.Data())

	close(release)
	wg.Wait()

	assert.Equal(t, []row{{ID: 2, Name: "fresh"}}, slot.Data(), "older response must not overwrite newer data")
	assert.False(t, slot.Loading())
}

func TestInFlightFetchDoesNotUndoLocalSplice(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	calls := 0

	slot := NewSlot("musics", func(ctx context.Context, _ Filters) ([]row, error) {
		calls++
		if calls == 2 {
			close(entered)
			<-release
		}
		return []row{{ID: 1, Name: "a"}}, nil
	})
	ctx := context.Background()
	require.NoError(t, slot.Mount(ctx))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = slot.Refresh(ctx)
	}()
	<-entered

	slot.Mutate(func(list []row) []row { return Prepend(list, row{ID: 2, Name: "created"}) })
	close(release)
	wg.Wait()

	assert.Equal(t, []int64{2, 1}, ids(slot.Data()), "created record must survive the older fetch")
	assert.False(t, slot.Loading())

	require.NoError(t, slot.Refresh(ctx))
	assert.Equal(t, []int64{1}, ids(slot.Data()), "fetches issued after the splice still write")
}

func TestMutateSplicesLocally(t *testing.T) {
	slot := NewSlot("rows", func(ctx context.Context, _ Filters) ([]row, error) {
		return []row{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}, nil
	})
	require.NoError(t, slot.Mount(context.Background()))

	slot.Mutate(func(list []row) []row { return Prepend(list, row{ID: 3, Name: "c"}) })
	assert.Equal(t, []int64{3, 1, 2}, ids(slot.Data()))

	slot.Mutate(func(list []row) []row { return RemoveByID(list, 1) })
	assert.Equal(t, []int64{3, 2}, ids(slot.Data()))

	slot.Mutate(func(list []row) []row { return ReplaceByID(list, row{ID: 2, Name: "B"}) })
	got, ok := FindByID(slot.Data(), 2)
	assert.True(t, ok)
	assert.Equal(t, "B", got.Name)
}

func TestSpliceWithoutIDRefetches(t *testing.T) {
	calls := 0
	slot := NewSlot("rows", func(ctx context.Context, _ Filters) ([]row, error) {
		calls++
		return []row{{ID: int64(calls)}}, nil
	})
	require.NoError(t, slot.Mount(context.Background()))

	require.NoError(t, Splice(context.Background(), slot, row{ID: 9}, Prepend[row]))
	assert.Equal(t, []int64{9, 1}, ids(slot.Data()))
	assert.Equal(t, 1, calls)

	require.NoError(t, Splice(context.Background(), slot, row{}, Prepend[row]))
	assert.Equal(t, []int64{2}, ids(slot.Data()))
	assert.Equal(t, 2, calls)
}

func TestPrependReplacesExistingCopy(t *testing.T) {
	list := []row{{ID: 1}, {ID: 2}}
	assert.Equal(t, []int64{2, 1}, ids(Prepend(list, row{ID: 2})))
}

type fakeGetter struct {
	req apiclient.Request
}

func (f *fakeGetter) Do(ctx context.Context, req apiclient.Request, out any) error {
	f.req = req
	if rows, ok := out.(*[]row); ok {
		*rows = []row{{ID: 7}}
	}
	return nil
}

func TestEndpointLoaderBuildsQuery(t *testing.T) {
	getter := &fakeGetter{}
	slot := NewSlot("musics", Endpoint[[]row](getter, "/admin/musics"),
		WithFilters(NewFilters("status", "genre", "is_free").Set("genre", "Jazz")))

	require.NoError(t, slot.Mount(context.Background()))
	assert.Equal(t, "/admin/musics", getter.req.Path)
	assert.Equal(t, "genre=Jazz", getter.req.Query.Encode())
	assert.Equal(t, []row{{ID: 7}}, slot.Data())
}

func ids(list []row) []int64 {
	out := make([]int64, 0, len(list))
	for _, r := range list {
		out = append(out, r.ID)
	}
	return out
}
