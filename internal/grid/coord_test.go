package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloorDiv_Examples(t *testing.T) {
	testCases := []struct {
		a, b, want int
	}{
		{0, 64, 0},
		{63, 64, 0},
		{64, 64, 1},
		{-1, 64, -1},
		{-64, 64, -1},
		{-65, 64, -2},
		{-128, 64, -2},
		{7, 3, 2},
		{-7, 3, -3},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, FloorDiv(tc.a, tc.b), "FloorDiv(%d, %d)", tc.a, tc.b)
	}
}

func TestFloorDiv_Property(t *testing.T) {
	for _, b := range []int{1, 2, 3, 7, 16, 64} {
		for a := -300; a <= 300; a++ {
			q := FloorDiv(a, b)
			require.LessOrEqual(t, q*b, a, "a=%d b=%d", a, b)
			require.Less(t, a, q*b+b, "a=%d b=%d", a, b)

			m := FloorMod(a, b)
			require.GreaterOrEqual(t, m, 0)
			require.Less(t, m, b)
			require.Equal(t, a, q*b+m)
		}
	}
}

func TestLayout_RoundTrip(t *testing.T) {
	layouts := []Layout{
		{ChunkSize: Size{W: 64, H: 64}},
		{Origin: Cell{X: -5, Y: 3}, ChunkSize: Size{W: 7, H: 4}},
		{Origin: Cell{X: 100, Y: -100}, ChunkSize: Size{W: 1, H: 1}},
	}

	for _, l := range layouts {
		for y := -40; y <= 40; y += 3 {
			for x := -40; x <= 40; x += 3 {
				c := Cell{X: x, Y: y}
				coord := l.CellToChunk(c)
				origin := l.ChunkOrigin(coord)
				local := LocalCoord(c, origin)

				require.Equal(t, c, origin.Add(local), "layout=%+v cell=%v", l, c)
				require.GreaterOrEqual(t, local.X, 0)
				require.GreaterOrEqual(t, local.Y, 0)
				require.Less(t, local.X, l.ChunkSize.W)
				require.Less(t, local.Y, l.ChunkSize.H)

				gotCoord, gotLocal := l.Locate(c)
				require.Equal(t, coord, gotCoord)
				require.Equal(t, local, gotLocal)
			}
		}
	}
}

func TestLayout_NegativeCells(t *testing.T) {
	l := Layout{ChunkSize: Size{W: 64, H: 64}}

	assert.Equal(t, ChunkCoord{X: -1, Y: -1}, l.CellToChunk(Cell{X: -1, Y: -1}))
	assert.Equal(t, Cell{X: -64, Y: -64}, l.ChunkOrigin(ChunkCoord{X: -1, Y: -1}))

	_, local := l.Locate(Cell{X: -1, Y: 0})
	assert.Equal(t, Cell{X: 63, Y: 0}, local)
}

func TestLayout_Validate(t *testing.T) {
	require.NoError(t, Layout{ChunkSize: Size{W: 1, H: 1}}.Validate())

	err := Layout{ChunkSize: Size{W: 0, H: 64}}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidLayout)

	err = Layout{ChunkSize: Size{W: 64, H: -1}}.Validate()
	assert.ErrorIs(t, err, ErrInvalidLayout)

	err = Layout{ChunkSize: Size{W: 8, H: 8}, Overlap: -1}.Validate()
	assert.ErrorIs(t, err, ErrInvalidLayout)
}
