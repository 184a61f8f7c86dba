package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReorder(t *testing.T) {
	tests := []struct {
		name string
		list []string
		from int
		to   int
		want []string
	}{
		{
			name: "first to last",
			list: []string{"A", "B", "C"},
			from: 0,
			to:   2,
			want: []string{"B", "C", "A"},
		},
		{
			name: "last to first",
			list: []string{"A", "B", "C"},
			from: 2,
			to:   0,
			want: []string{"C", "A", "B"},
		},
		{
			name: "adjacent forward",
			list: []string{"A", "B", "C", "D"},
			from: 1,
			to:   2,
			want: []string{"A", "C", "B", "D"},
		},
		{
			name: "adjacent backward",
			list: []string{"A", "B", "C", "D"},
			from: 2,
			to:   1,
			want: []string{"A", "C", "B", "D"},
		},
		{
			name: "same index",
			list: []string{"A", "B", "C"},
			from: 1,
			to:   1,
			want: []string{"A", "B", "C"},
		},
		{
			name: "single element",
			list: []string{"A"},
			from: 0,
			to:   0,
			want: []string{"A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := append([]string(nil), tt.list...)

			got, err := Reorder(tt.list, tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, original, tt.list, "input must not be mutated")
			assert.ElementsMatch(t, tt.list, got)
		})
	}
}

func TestReorder_RoundTrip(t *testing.T) {
	list := []int{10, 20, 30, 40, 50}

	pairs := [][2]int{{0, 4}, {4, 0}, {1, 2}, {2, 1}, {0, 1}, {3, 4}, {1, 3}}
	for _, p := range pairs {
		moved, err := Reorder(list, p[0], p[1])
		require.NoError(t, err)

		back, err := Reorder(moved, p[1], p[0])
		require.NoError(t, err)
		assert.Equal(t, list, back, "reorder(%d,%d) then back", p[0], p[1])
	}
}

func TestReorder_OutOfRange(t *testing.T) {
	list := []string{"A", "B", "C"}

	cases := [][2]int{{-1, 0}, {3, 0}, {0, -1}, {0, 3}}
	for _, c := range cases {
		_, err := Reorder(list, c[0], c[1])
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	}

	_, err := Reorder([]string{}, 0, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestInsertAt(t *testing.T) {
	tests := []struct {
		name  string
		list  []string
		index int
		want  []string
	}{
		{name: "front", list: []string{"A", "B"}, index: 0, want: []string{"X", "A", "B"}},
		{name: "middle", list: []string{"A", "B"}, index: 1, want: []string{"A", "X", "B"}},
		{name: "end", list: []string{"A", "B"}, index: 2, want: []string{"A", "B", "X"}},
		{name: "beyond end appends", list: []string{"A", "B"}, index: 10, want: []string{"A", "B", "X"}},
		{name: "negative clamps to front", list: []string{"A", "B"}, index: -3, want: []string{"X", "A", "B"}},
		{name: "empty list", list: nil, index: 5, want: []string{"X"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := append([]string(nil), tt.list...)

			got := InsertAt(tt.list, "X", tt.index)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, len(tt.list)+1)
			assert.Contains(t, got, "X")
			assert.Equal(t, original, append([]string(nil), tt.list...))
		})
	}
}

func TestInsertAt_DoesNotAliasInput(t *testing.T) {
	list := make([]int, 2, 10)
	list[0], list[1] = 1, 2

	got := InsertAt(list, 9, 0)
	got[1] = 100

	assert.Equal(t, []int{1, 2}, list)
}

func TestRemoveAt(t *testing.T) {
	got, err := RemoveAt([]string{"A", "B", "C"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, got)

	_, err = RemoveAt([]string{"A"}, 1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}
