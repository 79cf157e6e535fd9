package site

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/RyanHill92/rootzone/internal/field"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "rootzone.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewSQLiteStore(db, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": newSQLiteStore(t),
	}
}

func height(v float64) *float64 { return &v }

func TestStoreSites(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := Site{Name: "12 Acacia Avenue", Params: DefaultParams()}
			require.NoError(t, store.CreateSite(&s))
			require.NotEmpty(t, s.ID)
			assert.False(t, s.CreatedAt.IsZero())

			got, err := store.GetSite(s.ID)
			require.NoError(t, err)
			assert.Equal(t, s.Name, got.Name)
			assert.Equal(t, "", got.Address)
			assert.Equal(t, DefaultParams(), got.Params)

			p := DefaultParams()
			p.SoilPlasticity = "Low"
			p.FFL = 20.5
			require.NoError(t, store.UpdateParams(s.ID, p))
			// an update that changes nothing still finds the site
			require.NoError(t, store.UpdateParams(s.ID, p))

			got, err = store.GetSite(s.ID)
			require.NoError(t, err)
			assert.Equal(t, p, got.Params)

			other := Site{Name: "Plot 2", Address: "Mill Lane", Params: DefaultParams()}
			require.NoError(t, store.CreateSite(&other))
			sites, err := store.ListSites()
			require.NoError(t, err)
			require.Len(t, sites, 2)

			_, err = store.GetSite("no-such-site")
			assert.True(t, errors.Is(err, ErrNoMatchingRecord))
			assert.True(t, errors.Is(store.UpdateParams("no-such-site", p), ErrNoMatchingRecord))

			require.NoError(t, store.DeleteSite(other.ID))
			assert.True(t, errors.Is(store.DeleteSite(other.ID), ErrNoMatchingRecord))
			_, err = store.ListTrees(other.ID)
			assert.True(t, errors.Is(err, ErrNoMatchingRecord))
		})
	}
}

func TestStoreTrees(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := Site{Name: "site", Params: DefaultParams()}
			require.NoError(t, store.CreateSite(&s))

			oak := Tree{Species: "Oak (English)", X: 50, Y: 50, Z: 12}
			require.NoError(t, store.AddTree(s.ID, &oak))
			assert.NotZero(t, oak.ID)

			willow := Tree{Species: "Willow (Weeping)", X: -3.5, Y: 7, Z: 11.2, Remove: true, CurrentHeight: height(6)}
			require.NoError(t, store.AddTree(s.ID, &willow))

			dup := Tree{Species: "Ash", X: 50, Y: 50, Z: 0}
			assert.True(t, errors.Is(store.AddTree(s.ID, &dup), ErrDuplicateTree))

			trees, err := store.ListTrees(s.ID)
			require.NoError(t, err)
			require.Len(t, trees, 2)
			assert.Equal(t, oak, trees[0])
			assert.Equal(t, willow, trees[1])
			require.NotNil(t, trees[1].CurrentHeight)
			assert.Equal(t, 6.0, *trees[1].CurrentHeight)

			require.NoError(t, store.RemoveTree(s.ID, oak.ID))
			assert.True(t, errors.Is(store.RemoveTree(s.ID, oak.ID), ErrNoMatchingRecord))

			trees, err = store.ListTrees(s.ID)
			require.NoError(t, err)
			assert.Len(t, trees, 1)

			assert.True(t, errors.Is(store.AddTree("no-such-site", &Tree{Species: "Ash"}), ErrNoMatchingRecord))
		})
	}
}

func TestStoreTreesAreIsolatedPerSite(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			a := Site{Name: "a", Params: DefaultParams()}
			b := Site{Name: "b", Params: DefaultParams()}
			require.NoError(t, store.CreateSite(&a))
			require.NoError(t, store.CreateSite(&b))

			require.NoError(t, store.AddTree(a.ID, &Tree{Species: "Ash", X: 1, Y: 1}))
			// the same position on another site is not a duplicate
			tree := Tree{Species: "Ash", X: 1, Y: 1}
			require.NoError(t, store.AddTree(b.ID, &tree))

			assert.True(t, errors.Is(store.RemoveTree(a.ID, tree.ID), ErrNoMatchingRecord))

			trees, err := store.ListTrees(b.ID)
			require.NoError(t, err)
			assert.Len(t, trees, 1)
		})
	}
}

func TestStoreSectionsAndClicks(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := Site{Name: "site", Params: DefaultParams()}
			require.NoError(t, store.CreateSite(&s))

			drawn := Section{Label: "X-X'", Color: "#0000ff", Start: field.Point{X: 0, Y: 0}, End: field.Point{X: 10, Y: 0}}
			require.NoError(t, store.AddSection(s.ID, &drawn))

			sec, err := store.PairClicks(s.ID)
			require.NoError(t, err)
			assert.Nil(t, sec)

			require.NoError(t, store.AddClick(s.ID, &Click{X: 1, Y: 2}))
			sec, err = store.PairClicks(s.ID)
			require.NoError(t, err)
			assert.Nil(t, sec)

			require.NoError(t, store.AddClick(s.ID, &Click{X: 3, Y: 4}))
			require.NoError(t, store.AddClick(s.ID, &Click{X: 5, Y: 6}))

			sec, err = store.PairClicks(s.ID)
			require.NoError(t, err)
			require.NotNil(t, sec)
			assert.Equal(t, "Y-Y'", sec.Label)
			assert.Equal(t, DefaultSectionColor, sec.Color)
			assert.Equal(t, field.Point{X: 1, Y: 2}, sec.Start)
			assert.Equal(t, field.Point{X: 3, Y: 4}, sec.End)

			clicks, err := store.ListClicks(s.ID)
			require.NoError(t, err)
			require.Len(t, clicks, 1)
			assert.Equal(t, 5.0, clicks[0].X)

			sections, err := store.ListSections(s.ID)
			require.NoError(t, err)
			require.Len(t, sections, 2)
			assert.Equal(t, drawn, sections[0])
			assert.Equal(t, *sec, sections[1])

			require.NoError(t, store.RemoveSection(s.ID, drawn.ID))
			assert.True(t, errors.Is(store.RemoveSection(s.ID, drawn.ID), ErrNoMatchingRecord))

			require.NoError(t, store.DeleteSite(s.ID))
			_, err = store.ListSections(s.ID)
			assert.True(t, errors.Is(err, ErrNoMatchingRecord))
		})
	}
}

func TestStorePairClicksAfterRemoval(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := Site{Name: "site", Params: DefaultParams()}
			require.NoError(t, store.CreateSite(&s))

			first := Section{Label: "A-A'", Color: DefaultSectionColor, End: field.Point{X: 1}}
			second := Section{Label: "B-B'", Color: DefaultSectionColor, End: field.Point{X: 2}}
			require.NoError(t, store.AddSection(s.ID, &first))
			require.NoError(t, store.AddSection(s.ID, &second))
			require.NoError(t, store.RemoveSection(s.ID, first.ID))

			require.NoError(t, store.AddClick(s.ID, &Click{X: 1, Y: 2}))
			require.NoError(t, store.AddClick(s.ID, &Click{X: 3, Y: 4}))
			sec, err := store.PairClicks(s.ID)
			require.NoError(t, err)
			require.NotNil(t, sec)
			assert.Equal(t, "C-C'", sec.Label)

			sections, err := store.ListSections(s.ID)
			require.NoError(t, err)
			require.Len(t, sections, 2)
			assert.NotEqual(t, sections[0].Label, sections[1].Label)
		})
	}
}

func TestNextSectionLabel(t *testing.T) {
	tests := []struct {
		labels []string
		want   string
	}{
		{nil, "A-A'"},
		{[]string{"A-A'"}, "B-B'"},
		{[]string{"B-B'"}, "C-C'"},
		{[]string{"C-C'", "A-A'"}, "D-D'"},
		{[]string{"Z-Z'"}, "AA-AA'"},
		{[]string{"AB-AB'", "B-B'"}, "AC-AC'"},
		{[]string{"Kitchen", "a-a'", "A-B'", "A-A", "-'"}, "A-A'"},
		{[]string{"Kitchen", "D-D'"}, "E-E'"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NextSectionLabel(tt.labels), "labels %q", tt.labels)
	}
}

func TestSectionLabel(t *testing.T) {
	assert.Equal(t, "A-A'", SectionLabel(0))
	assert.Equal(t, "B-B'", SectionLabel(1))
	assert.Equal(t, "Z-Z'", SectionLabel(25))
	assert.Equal(t, "AA-AA'", SectionLabel(26))
	assert.Equal(t, "AB-AB'", SectionLabel(27))
	assert.Equal(t, "A-A'", SectionLabel(-4))
}
