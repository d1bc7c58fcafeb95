package favorites

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ringroad/pkg/db"
	"ringroad/pkg/model"
	"ringroad/pkg/store"
)

type memState struct {
	vals   map[string]string
	writes int
	err    error
}

func newMemState() *memState {
	return &memState{vals: make(map[string]string)}
}

func (m *memState) GetState(ctx context.Context, key string) (string, bool) {
	v, ok := m.vals[key]
	return v, ok
}

func (m *memState) SetState(ctx context.Context, key, val string) error {
	m.writes++
	if m.err != nil {
		return m.err
	}
	m.vals[key] = val
	return nil
}

func (m *memState) DeleteState(ctx context.Context, key string) error {
	delete(m.vals, key)
	return nil
}

func TestLoadInitial(t *testing.T) {
	tests := []struct {
		name   string
		stored *string
		want   []string
	}{
		{name: "Missing", stored: nil, want: []string{}},
		{name: "Empty", stored: ptr(""), want: []string{}},
		{name: "InvalidJSON", stored: ptr("{not json"), want: []string{}},
		{name: "WrongShape", stored: ptr(`{"a":1}`), want: []string{}},
		{name: "Valid", stored: ptr(`["b","a",""]`), want: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newMemState()
			if tt.stored != nil {
				st.vals["favorites"] = *tt.stored
			}
			s := New(st, "favorites")

			var got []string
			require.NotPanics(t, func() { got = s.LoadInitial(context.Background()) })
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToggle_TwiceRestores(t *testing.T) {
	st := newMemState()
	s := New(st, "favorites")
	ctx := context.Background()

	assert.True(t, s.Toggle(ctx, "gullfoss"))
	assert.True(t, s.IsFavorite("gullfoss"))
	assert.Equal(t, `["gullfoss"]`, st.vals["favorites"])

	assert.False(t, s.Toggle(ctx, "gullfoss"))
	assert.False(t, s.IsFavorite("gullfoss"))
	assert.Equal(t, `[]`, st.vals["favorites"])

	assert.Equal(t, 2, st.writes, "one write per toggle")
}

func TestToggle_StorageFailureSwallowed(t *testing.T) {
	st := newMemState()
	st.err = errors.New("disk full")
	s := New(st, "favorites")

	assert.True(t, s.Toggle(context.Background(), "a"))
	assert.True(t, s.IsFavorite("a"), "in-memory state survives a failed write")
}

func TestPersistence_SQLite(t *testing.T) {
	d, err := db.Init(filepath.Join(t.TempDir(), "fav.db"))
	require.NoError(t, err)
	st := store.NewSQLiteStore(d)
	defer st.Close()

	ctx := context.Background()
	s := New(st, "favorites")
	s.LoadInitial(ctx)
	s.Toggle(ctx, "b")
	s.Toggle(ctx, "a")

	reloaded := New(st, "favorites")
	assert.Equal(t, []string{"a", "b"}, reloaded.LoadInitial(ctx))
}

type fakeCatalog []*model.POI

func (f fakeCatalog) POIs() []*model.POI { return f }

func TestResolve_SkipsStaleIDs(t *testing.T) {
	st := newMemState()
	st.vals["favorites"] = `["p3","gone","p1"]`
	s := New(st, "favorites")
	s.LoadInitial(context.Background())

	cat := fakeCatalog{{ID: "p1"}, {ID: "p2"}, {ID: "p3"}}
	got := s.Resolve(cat)

	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].ID)
	assert.Equal(t, "p3", got[1].ID)
	assert.Equal(t, 3, s.Count())
}

func TestMilestones(t *testing.T) {
	s := New(newMemState(), "favorites")
	ctx := context.Background()

	var fired []int
	m := NewMilestones([]int{7, 3}, func(n int) { fired = append(fired, n) })
	s.Subscribe(m.Observe)

	for _, id := range []string{"a", "b", "c"} {
		s.Toggle(ctx, id)
	}
	assert.Equal(t, []int{3}, fired)

	// Dropping below and climbing back does not celebrate again.
	s.Toggle(ctx, "c")
	s.Toggle(ctx, "c")
	assert.Equal(t, []int{3}, fired)

	for _, id := range []string{"d", "e", "f", "g"} {
		s.Toggle(ctx, id)
	}
	assert.Equal(t, []int{3, 7}, fired)
}

func ptr(s string) *string { return &s }
