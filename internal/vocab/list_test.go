package vocab

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/example/vocabdeck/pkg/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func seeded(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

func sampleEntries(n int) []models.Entry {
	entries := make([]models.Entry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, models.Entry{
			Word: fmt.Sprintf("word-%d", i),
			Part: "n.",
			Note: fmt.Sprintf("note-%d", i),
		})
	}
	return entries
}

// checkInvariant asserts the order holds exactly the mapping's keys
func checkInvariant(t *testing.T, l *List) {
	t.Helper()

	order := l.Order()
	seen := make(map[models.EntryID]bool, len(order))
	for _, id := range order {
		require.False(t, seen[id], "duplicate id %s in order", id)
		seen[id] = true
		_, ok := l.Get(id)
		require.True(t, ok, "id %s in order but not in mapping", id)
	}
	require.Len(t, l.entries, len(order))
	require.Len(t, l.inserted, len(order))
}

func TestList_ImportReplaces(t *testing.T) {
	l := New(seeded(1))
	l.Import(sampleEntries(5))
	first := l.Order()
	require.Len(t, first, 5)

	l.Import(sampleEntries(3))
	second := l.Order()
	require.Len(t, second, 3)
	checkInvariant(t, l)

	for _, id := range first {
		_, ok := l.Get(id)
		assert.False(t, ok, "id %s from the first import survived", id)
	}
}

func TestList_ImportEmpty(t *testing.T) {
	l := New(seeded(1))
	l.Import(sampleEntries(2))
	l.Import(nil)

	assert.Equal(t, 0, l.Len())
	s, err := l.Serialize()
	require.NoError(t, err)
	assert.Equal(t, "[]", s)
}

func TestList_Add(t *testing.T) {
	tests := []struct {
		name  string
		entry models.Entry
		added bool
		want  models.Entry
	}{
		{"all empty", models.Entry{}, false, models.Entry{}},
		{"all blank", models.Entry{Word: "  ", Part: "\t", Note: "\n"}, false, models.Entry{}},
		{"word only", models.Entry{Word: "a"}, true, models.Entry{Word: "a"}},
		{"note only", models.Entry{Note: "meaning"}, true, models.Entry{Note: "meaning"}},
		{"equal non-empty", models.Entry{Word: "x", Part: "x", Note: "x"}, true, models.Entry{Word: "x", Part: "x", Note: "x"}},
		{"trimmed", models.Entry{Word: " cat ", Part: " n. ", Note: " neko\n"}, true, models.Entry{Word: "cat", Part: "n.", Note: "neko"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(seeded(1))
			id, ok := l.Add(tt.entry)
			assert.Equal(t, tt.added, ok)

			if !tt.added {
				assert.Empty(t, id)
				assert.Equal(t, 0, l.Len())
				return
			}
			got, found := l.Get(id)
			require.True(t, found)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []models.EntryID{id}, l.Order())
		})
	}
}

func TestList_AddAppendsAfterShuffle(t *testing.T) {
	l := New(seeded(7))
	l.Import(sampleEntries(10))
	before := l.Order()

	id, ok := l.Add(models.Entry{Word: "last"})
	require.True(t, ok)

	after := l.Order()
	require.Len(t, after, 11)
	assert.Equal(t, before, after[:10])
	assert.Equal(t, id, after[10])
}

func TestList_IDCollisionRetries(t *testing.T) {
	ids := []string{"a", "a", "a", "b"}
	next := 0
	l := New(seeded(1), WithIDFunc(func() string {
		id := ids[next]
		next++
		return id
	}))

	first, ok := l.Add(models.Entry{Word: "one"})
	require.True(t, ok)
	second, ok := l.Add(models.Entry{Word: "two"})
	require.True(t, ok)

	assert.Equal(t, models.EntryID("a"), first)
	assert.Equal(t, models.EntryID("b"), second)
	assert.Equal(t, 4, next)
	checkInvariant(t, l)
}

func TestList_Remove(t *testing.T) {
	l := New(seeded(1))
	id1, _ := l.Add(models.Entry{Word: "one"})
	id2, _ := l.Add(models.Entry{Word: "two"})
	id3, _ := l.Add(models.Entry{Word: "three"})

	require.NoError(t, l.Remove(id2, 1))

	_, ok := l.Get(id2)
	assert.False(t, ok)
	assert.Equal(t, []models.EntryID{id1, id3}, l.Order())
	assert.Equal(t, []models.Entry{{Word: "one"}, {Word: "three"}}, l.Entries())
	checkInvariant(t, l)
}

func TestList_RemoveIndexMismatch(t *testing.T) {
	l := New(seeded(1))
	id1, _ := l.Add(models.Entry{Word: "one"})
	id2, _ := l.Add(models.Entry{Word: "two"})

	tests := []struct {
		name  string
		id    models.EntryID
		index int
	}{
		{"wrong position", id1, 1},
		{"negative", id1, -1},
		{"past the end", id2, 2},
		{"unknown id", "missing", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.Remove(tt.id, tt.index)
			require.ErrorIs(t, err, ErrIndexMismatch)
			assert.Equal(t, []models.EntryID{id1, id2}, l.Order())
			checkInvariant(t, l)
		})
	}
}

func TestList_ShuffleSmall(t *testing.T) {
	l := New(seeded(1))
	l.Shuffle()
	assert.Empty(t, l.Order())

	id, _ := l.Add(models.Entry{Word: "solo"})
	l.Shuffle()
	assert.Equal(t, []models.EntryID{id}, l.Order())
}

func TestList_ShuffleIsPermutation(t *testing.T) {
	l := New(seeded(3))
	l.Import(sampleEntries(25))

	before := l.Order()
	for i := 0; i < 20; i++ {
		l.Shuffle()
		after := l.Order()

		sortedBefore := append([]models.EntryID(nil), before...)
		sortedAfter := append([]models.EntryID(nil), after...)
		sort.Slice(sortedBefore, func(i, j int) bool { return sortedBefore[i] < sortedBefore[j] })
		sort.Slice(sortedAfter, func(i, j int) bool { return sortedAfter[i] < sortedAfter[j] })
		require.Empty(t, cmp.Diff(sortedBefore, sortedAfter))
	}
	checkInvariant(t, l)
}

func TestList_ShuffleUniform(t *testing.T) {
	const (
		n      = 4
		trials = 40000
	)

	l := New(seeded(42))
	ids := make([]models.EntryID, 0, n)
	for i := 0; i < n; i++ {
		id, _ := l.Add(models.Entry{Word: fmt.Sprint(i)})
		ids = append(ids, id)
	}

	// counts[id][position]
	counts := make(map[models.EntryID][]int, n)
	for _, id := range ids {
		counts[id] = make([]int, n)
	}

	for i := 0; i < trials; i++ {
		l.Shuffle()
		for pos, id := range l.order {
			counts[id][pos]++
		}
	}

	expected := trials / n
	for _, id := range ids {
		for pos, c := range counts[id] {
			assert.InDelta(t, expected, c, float64(expected)/20, "id %s at position %d", id, pos)
		}
	}
}

func TestList_InvariantUnderMixedOperations(t *testing.T) {
	rnd := rand.New(rand.NewSource(99))
	l := New(seeded(5))

	for step := 0; step < 500; step++ {
		switch rnd.Intn(5) {
		case 0:
			l.Import(sampleEntries(rnd.Intn(6)))
		case 1:
			l.Add(models.Entry{Word: fmt.Sprint(step)})
		case 2:
			l.Add(models.Entry{})
		case 3:
			if l.Len() > 0 {
				idx := rnd.Intn(l.Len())
				require.NoError(t, l.Remove(l.Order()[idx], idx))
			}
		case 4:
			l.Shuffle()
		}
		checkInvariant(t, l)
	}
}

func TestList_SerializeUsesInsertionOrder(t *testing.T) {
	entries := sampleEntries(8)
	l := New(seeded(11))
	l.Import(entries)
	l.Shuffle()

	s, err := l.Serialize()
	require.NoError(t, err)

	var got []models.Entry
	require.NoError(t, json.Unmarshal([]byte(s), &got))
	assert.Equal(t, entries, got)
}

func TestList_SerializeAfterEdits(t *testing.T) {
	l := New(seeded(2))
	l.Import(sampleEntries(3))
	l.Add(models.Entry{Word: "added", Part: "v.", Note: "late"})

	order := l.Order()
	var idx int
	for i, id := range order {
		if e, _ := l.Get(id); e.Word == "word-1" {
			idx = i
		}
	}
	require.NoError(t, l.Remove(order[idx], idx))

	s, err := l.Serialize()
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"word":"word-0","part":"n.","note":"note-0"},
		{"word":"word-2","part":"n.","note":"note-2"},
		{"word":"added","part":"v.","note":"late"}
	]`, s)
}

func TestList_EndToEnd(t *testing.T) {
	upload := []byte(`[{"word":"猫","part":"n.","note":"cat"},{"word":"犬","part":"n.","note":"dog"}]`)

	entries, err := ParseImport(upload)
	require.NoError(t, err)

	l := New(seeded(8))
	l.Import(entries)
	assert.Equal(t, 2, l.Len())
	checkInvariant(t, l)

	s, err := l.Serialize()
	require.NoError(t, err)
	assert.Equal(t, string(upload), s)
}

func TestList_CardsFollowDisplayOrder(t *testing.T) {
	l := New(seeded(4))
	l.Import(sampleEntries(6))

	cards := l.Cards()
	order := l.Order()
	require.Len(t, cards, len(order))
	for i, c := range cards {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, order[i], c.ID)
		e, _ := l.Get(c.ID)
		assert.Equal(t, e, c.Entry)
	}
}
