package resume

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/resume-builder/internal/domain/section"
)

func newTestStore() (*Store, *MemoryCache) {
	cache := NewMemoryCache()
	return NewStore("u1", section.Default(), cache), cache
}

func TestStore_LoadEmpty(t *testing.T) {
	st, _ := newTestStore()
	require.NoError(t, st.Load(context.Background()))

	_, ok := st.Get(section.Education)
	assert.False(t, ok, "absent section means not filled")

	v, err := st.Value(section.Education)
	require.NoError(t, err)
	assert.Equal(t, []section.Item{}, v)
	assert.Equal(t, DefaultCustomization(), st.Customization())
}

func TestStore_SetIsVisibleImmediately(t *testing.T) {
	st, _ := newTestStore()

	require.NoError(t, st.Set(section.Skills, []string{"JavaScript", "Python"}))
	v, ok := st.Get(section.Skills)
	require.True(t, ok)
	assert.Equal(t, []string{"JavaScript", "Python"}, v)

	v.([]string)[0] = "mutated"
	again, _ := st.Get(section.Skills)
	assert.Equal(t, "JavaScript", again.([]string)[0], "Get must return a copy")
}

func TestStore_SetRejectsUnknownSection(t *testing.T) {
	st, _ := newTestStore()
	err := st.Set("hobbies", "chess")
	assert.True(t, errors.Is(err, ErrUnknownSection))

	err = st.Set(section.Personal, []any{"x"})
	assert.True(t, errors.Is(err, ErrInvalidValue))
}

func TestStore_SaveAndReload(t *testing.T) {
	ctx := context.Background()
	st, cache := newTestStore()

	edu := []section.Item{{"id": "e1", "degree": "B.Tech", "institute": "MIT", "startYear": "2018", "endYear": "2022"}}
	require.NoError(t, st.Set(section.Education, edu))
	require.NoError(t, st.Set(section.Summary, "Hello"))
	require.NoError(t, st.Checkpoint(section.Education))
	require.NoError(t, st.Checkpoint(section.Summary))
	st.MarkFailed(section.Summary, errors.New("backend down"))
	require.NoError(t, st.Save(ctx))
	require.NoError(t, st.SetCustomization(ctx, TemplateCustomization{ColorScheme: "green"}))

	fresh := NewStore("u1", section.Default(), cache)
	require.NoError(t, fresh.Load(ctx))

	got, ok := fresh.Get(section.Education)
	require.True(t, ok)
	items := got.([]section.Item)
	require.Len(t, items, 1)
	assert.Equal(t, "e1", items[0].ID())
	assert.Equal(t, "B.Tech", items[0]["degree"])
	assert.Equal(t, "", items[0]["grade"])

	sum, _ := fresh.Get(section.Summary)
	assert.Equal(t, "Hello", sum)

	state, ok := fresh.Status(section.Summary)
	require.True(t, ok)
	assert.Equal(t, StatusFailed, state.Status)
	assert.Equal(t, "backend down", state.Error)

	assert.Equal(t, "green", fresh.Customization().ColorScheme)
	assert.Equal(t, "Inter", fresh.Customization().FontFamily)
}

func TestStore_SetWithoutSaveIsNotPersisted(t *testing.T) {
	ctx := context.Background()
	st, cache := newTestStore()
	require.NoError(t, st.Set(section.Headline, "Lost"))

	fresh := NewStore("u1", section.Default(), cache)
	require.NoError(t, fresh.Load(ctx))
	_, ok := fresh.Get(section.Headline)
	assert.False(t, ok)
}

func TestStore_MergeKeepsUnsyncedEdits(t *testing.T) {
	st, _ := newTestStore()
	require.NoError(t, st.Set(section.Headline, "local draft"))
	st.MarkFailed(section.Headline, errors.New("timeout"))

	merged, err := st.Merge(map[string]any{
		section.Headline: "server headline",
		section.Summary:  "server summary",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{section.Summary}, merged)

	h, _ := st.Get(section.Headline)
	assert.Equal(t, "local draft", h)
	s, _ := st.Get(section.Summary)
	assert.Equal(t, "server summary", s)

	state, _ := st.Status(section.Summary)
	assert.Equal(t, StatusCommitted, state.Status)

	_, err = st.Merge(map[string]any{"nope": 1})
	assert.True(t, errors.Is(err, ErrUnknownSection))
}

func TestStore_Subscribe(t *testing.T) {
	st, _ := newTestStore()
	var got []Change
	unsubscribe := st.Subscribe(func(c Change) { got = append(got, c) })

	require.NoError(t, st.Set(section.Headline, "A"))
	st.MarkPending(section.Headline)
	st.MarkCommitted(section.Headline)
	unsubscribe()
	require.NoError(t, st.Set(section.Headline, "B"))

	require.Len(t, got, 3)
	assert.Equal(t, ChangeSet, got[0].Kind)
	assert.Equal(t, StatusPending, got[1].Status)
	assert.Equal(t, StatusCommitted, got[2].Status)
	assert.Equal(t, "u1", got[0].UserID)
}

func TestStore_Remove(t *testing.T) {
	st, _ := newTestStore()
	require.NoError(t, st.Set(section.Headline, "A"))
	st.MarkCommitted(section.Headline)
	st.Remove(section.Headline)

	_, ok := st.Get(section.Headline)
	assert.False(t, ok)
	_, ok = st.Status(section.Headline)
	assert.False(t, ok)
}

func TestStore_SetCustomizationRejectsUnknownValues(t *testing.T) {
	st, _ := newTestStore()
	err := st.SetCustomization(context.Background(), TemplateCustomization{ColorScheme: "neon"})
	assert.True(t, errors.Is(err, ErrInvalidCustomization))
	assert.Equal(t, "blue", st.Customization().ColorScheme)
}

func TestManager_SharesHydration(t *testing.T) {
	cache := NewMemoryCache()
	var changes atomic.Int32
	m := NewManager(section.Default(), cache, WithSubscriber(func(Change) { changes.Add(1) }))

	var wg sync.WaitGroup
	stores := make([]*Store, 8)
	for i := range stores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st, err := m.For(context.Background(), "u1")
			assert.NoError(t, err)
			stores[i] = st
		}(i)
	}
	wg.Wait()

	for _, st := range stores[1:] {
		assert.Same(t, stores[0], st)
	}

	require.NoError(t, stores[0].Set(section.Headline, "x"))
	assert.Equal(t, int32(1), changes.Load())

	assert.Equal(t, 0, m.Sweep(1<<40))
	assert.Equal(t, 1, m.Sweep(0))
	again, err := m.For(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotSame(t, stores[0], again)
}

func TestStore_RevertDropsUnsavedEdits(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStore()

	require.NoError(t, st.Set(section.Summary, "saved text"))
	require.NoError(t, st.Checkpoint(section.Summary))
	st.MarkCommitted(section.Summary)
	require.NoError(t, st.Save(ctx))

	require.NoError(t, st.Set(section.Summary, "live edit"))
	require.NoError(t, st.Set(section.Headline, "never saved"))

	require.NoError(t, st.Revert(section.Summary))
	v, _ := st.Get(section.Summary)
	assert.Equal(t, "saved text", v)

	require.NoError(t, st.Revert(section.Headline))
	_, ok := st.Get(section.Headline)
	assert.False(t, ok)

	assert.True(t, errors.Is(st.Revert("hobbies"), ErrUnknownSection))
}

func TestManager_LoaderRunsOncePerHydration(t *testing.T) {
	var calls atomic.Int32
	m := NewManager(section.Default(), NewMemoryCache(), WithLoader(func(_ context.Context, st *Store) error {
		calls.Add(1)
		_, err := st.Merge(map[string]any{section.Headline: "from server"})
		return err
	}))

	st, err := m.For(context.Background(), "u1")
	require.NoError(t, err)
	_, err = m.For(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	v, _ := st.Get(section.Headline)
	assert.Equal(t, "from server", v)

	failing := NewManager(section.Default(), NewMemoryCache(), WithLoader(func(context.Context, *Store) error {
		return errors.New("db down")
	}))
	_, err = failing.For(context.Background(), "u1")
	assert.EqualError(t, err, "db down")
}

func TestStore_SetMarksSectionDirtyUntilCheckpoint(t *testing.T) {
	st, _ := newTestStore()
	require.NoError(t, st.Set(section.Headline, "draft"))

	state, ok := st.Status(section.Headline)
	require.True(t, ok)
	assert.Equal(t, StatusDirty, state.Status)
	assert.Equal(t, StatusDirty, st.Statuses()[section.Headline].Status)
	_, saved := st.Saved(section.Headline)
	assert.False(t, saved)

	require.NoError(t, st.Checkpoint(section.Headline))
	st.MarkCommitted(section.Headline)
	state, _ = st.Status(section.Headline)
	assert.Equal(t, StatusCommitted, state.Status)
	v, saved := st.Saved(section.Headline)
	require.True(t, saved)
	assert.Equal(t, "draft", v)

	assert.True(t, errors.Is(st.Checkpoint("hobbies"), ErrUnknownSection))
}

func TestStore_SaveSkipsUnsavedEditsOfOtherSections(t *testing.T) {
	ctx := context.Background()
	st, cache := newTestStore()

	require.NoError(t, st.Set(section.Summary, "kept"))
	require.NoError(t, st.Checkpoint(section.Summary))
	require.NoError(t, st.Set(section.Summary, "live edit"))
	require.NoError(t, st.Set(section.Headline, "saved headline"))
	require.NoError(t, st.Checkpoint(section.Headline))
	require.NoError(t, st.Save(ctx))

	fresh := NewStore("u1", section.Default(), cache)
	require.NoError(t, fresh.Load(ctx))
	v, _ := fresh.Get(section.Summary)
	assert.Equal(t, "kept", v)
	h, _ := fresh.Get(section.Headline)
	assert.Equal(t, "saved headline", h)

	require.NoError(t, st.Revert(section.Summary))
	v, _ = st.Get(section.Summary)
	assert.Equal(t, "kept", v)
}

func TestStore_MergeUpdatesSavedValueUnderLiveEdit(t *testing.T) {
	st, _ := newTestStore()
	require.NoError(t, st.Set(section.Summary, "live edit"))

	merged, err := st.Merge(map[string]any{section.Summary: "from server"})
	require.NoError(t, err)
	assert.Equal(t, []string{section.Summary}, merged)

	v, _ := st.Get(section.Summary)
	assert.Equal(t, "live edit", v)
	require.NoError(t, st.Revert(section.Summary))
	v, _ = st.Get(section.Summary)
	assert.Equal(t, "from server", v)
}

func TestStore_RefreshPicksUpNewerCopy(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	a := NewStore("u1", section.Default(), cache)
	a.now = tick
	b := NewStore("u1", section.Default(), cache)
	b.now = tick
	require.NoError(t, a.Load(ctx))
	require.NoError(t, b.Load(ctx))

	require.NoError(t, b.Set(section.Summary, "b draft"))

	require.NoError(t, a.Set(section.Summary, "a summary"))
	require.NoError(t, a.Set(section.Headline, "a headline"))
	require.NoError(t, a.Checkpoint(section.Summary))
	require.NoError(t, a.Checkpoint(section.Headline))
	require.NoError(t, a.Save(ctx))

	reloaded, err := b.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, reloaded)

	h, _ := b.Get(section.Headline)
	assert.Equal(t, "a headline", h)
	s, _ := b.Get(section.Summary)
	assert.Equal(t, "b draft", s)
	saved, _ := b.Saved(section.Summary)
	assert.Equal(t, "a summary", saved)

	reloaded, err = b.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, reloaded)

	require.NoError(t, b.Revert(section.Summary))
	s, _ = b.Get(section.Summary)
	assert.Equal(t, "a summary", s)
}

func TestManager_ForRefreshesLiveStore(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()
	m := NewManager(section.Default(), cache)

	st, err := m.For(ctx, "u1")
	require.NoError(t, err)
	_, ok := st.Get(section.Headline)
	assert.False(t, ok)

	other := NewStore("u1", section.Default(), cache)
	other.now = func() time.Time { return time.Now().Add(time.Hour) }
	require.NoError(t, other.Set(section.Headline, "from another instance"))
	require.NoError(t, other.Checkpoint(section.Headline))
	require.NoError(t, other.Save(ctx))

	again, err := m.For(ctx, "u1")
	require.NoError(t, err)
	assert.Same(t, st, again)
	h, _ := again.Get(section.Headline)
	assert.Equal(t, "from another instance", h)
}
