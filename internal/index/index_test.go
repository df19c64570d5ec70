package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chunkgrid/internal/chunk"
	"github.com/roach88/chunkgrid/internal/grid"
	"github.com/roach88/chunkgrid/internal/layer"
	"github.com/roach88/chunkgrid/internal/tile"
)

type request struct {
	Layer layer.ID
	Cell  grid.Cell
}

type recorder struct {
	got []request
}

func (r *recorder) Enqueue(id layer.ID, cell grid.Cell) {
	r.got = append(r.got, request{Layer: id, Cell: cell})
}

func (r *recorder) cells() []grid.Cell {
	out := make([]grid.Cell, 0, len(r.got))
	for _, q := range r.got {
		out = append(out, q.Cell)
	}
	return out
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.InitialChunks = grid.Size{}
	return cfg
}

func newTestIndex(t *testing.T, opts ...Option) (*Index, *recorder) {
	t.Helper()
	rec := &recorder{}
	ix, err := New(testConfig(), append([]Option{WithInvalidator(rec)}, opts...)...)
	require.NoError(t, err)
	return ix, rec
}

func TestNew_DefaultConfig(t *testing.T) {
	ix, err := New(DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 16, ix.Len())
	assert.True(t, ix.Has(grid.ChunkCoord{X: 3, Y: 3}))
	assert.False(t, ix.Has(grid.ChunkCoord{X: 4, Y: 0}))
	assert.Equal(t, []string{"Decor", "Objects", "Ground"}, ix.Layers().Names())
}

func TestNew_ConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		opts   []Option
		field  string
	}{
		{"zero chunk width", func(c *Config) { c.Layout.ChunkSize.W = 0 }, nil, "layout.chunk_size"},
		{"negative chunk height", func(c *Config) { c.Layout.ChunkSize.H = -4 }, nil, "layout.chunk_size"},
		{"negative overlap", func(c *Config) { c.Layout.Overlap = -1 }, nil, "layout.overlap"},
		{"no layers", func(c *Config) { c.Layers = nil }, nil, "layers"},
		{"duplicate layers", func(c *Config) { c.Layers = []string{"Ground", "Ground"} }, nil, "layers"},
		{"negative initial chunks", func(c *Config) { c.InitialChunks.W = -1 }, nil, "initial_chunks"},
		{"zero refresh radius", func(*Config) {}, []Option{WithRefreshRadius(0)}, "refresh_radius"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)

			ix, err := New(cfg, tt.opts...)
			require.Error(t, err)
			assert.Nil(t, ix)
			assert.ErrorIs(t, err, ErrInvalidConfig)

			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
			assert.True(t, IsConfigError(err))
		})
	}
}

func TestGetTile_AbsentChunkIsEmptyAndNotCreated(t *testing.T) {
	ix, _ := newTestIndex(t)
	ground, err := ix.Layer("Ground")
	require.NoError(t, err)

	for _, cell := range []grid.Cell{{X: 0, Y: 0}, {X: -1, Y: -1}, {X: 1000, Y: -5000}} {
		assert.Equal(t, tile.Empty, ix.GetTile(ground, cell))
	}
	assert.Equal(t, 0, ix.Len())
}

func TestSetTile_CreatesOwningChunk(t *testing.T) {
	ix, _ := newTestIndex(t)
	ground, _ := ix.Layer("Ground")

	require.NoError(t, ix.SetTile(ground, grid.Cell{X: -1, Y: -1}, tile.Static("grass")))

	assert.True(t, ix.Has(grid.ChunkCoord{X: -1, Y: -1}))
	assert.Equal(t, 1, ix.Len())
	assert.Equal(t, tile.Static("grass"), ix.GetTile(ground, grid.Cell{X: -1, Y: -1}))
	c := ix.Chunk(grid.ChunkCoord{X: -1, Y: -1})
	require.NotNil(t, c)
	assert.Equal(t, tile.Static("grass"), c.Get(ground, grid.Cell{X: 63, Y: 63}))
}

func TestSetTile_UnknownLayer(t *testing.T) {
	ix, _ := newTestIndex(t)

	err := ix.SetTile(layer.ID(42), grid.Cell{}, tile.Static("x"))
	assert.ErrorIs(t, err, ErrUnknownLayer)

	err = ix.SetTileByName("Sky", grid.Cell{}, tile.Static("x"))
	assert.ErrorIs(t, err, ErrUnknownLayer)
	assert.Equal(t, 0, ix.Len())
}

func TestSetTile_RightEdgeEnqueuesEastNeighborsFirst(t *testing.T) {
	ix, rec := newTestIndex(t)
	objects, _ := ix.Layer("Objects")

	require.NoError(t, ix.SetTile(objects, grid.Cell{X: 63, Y: 10}, tile.Static("wall")))

	require.NotEmpty(t, rec.got)
	assert.Equal(t, request{Layer: objects, Cell: grid.Cell{X: 64, Y: 10}}, rec.got[0])
	assert.ElementsMatch(t, []grid.Cell{{X: 64, Y: 10}, {X: 64, Y: 11}, {X: 64, Y: 9}}, rec.cells())
}

func TestSetTile_InteriorEnqueuesNothing(t *testing.T) {
	ix, rec := newTestIndex(t)
	ground, _ := ix.Layer("Ground")

	require.NoError(t, ix.SetTile(ground, grid.Cell{X: 10, Y: 10}, tile.Static("grass")))
	assert.Empty(t, rec.got)
}

func TestSetTile_CornerEnqueuesAllForeignMooreNeighbors(t *testing.T) {
	ix, rec := newTestIndex(t)
	ground, _ := ix.Layer("Ground")

	require.NoError(t, ix.SetTile(ground, grid.Cell{X: 0, Y: 0}, tile.Static("grass")))

	// (0,0) is the south-west corner of chunk (0,0): five of its eight
	// neighbors are in chunks (-1,0), (0,-1) and (-1,-1).
	assert.ElementsMatch(t, []grid.Cell{
		{X: -1, Y: 0}, {X: 0, Y: -1}, {X: -1, Y: 1}, {X: 1, Y: -1}, {X: -1, Y: -1},
	}, rec.cells())
}

// Every write anywhere near an edge enqueues exactly the Moore neighbors owned
// by other chunks.
func TestSetTile_BorderInvalidationCompleteness(t *testing.T) {
	cfg := testConfig()
	cfg.Layout.ChunkSize = grid.Size{W: 4, H: 3}
	rec := &recorder{}
	ix, err := New(cfg, WithInvalidator(rec))
	require.NoError(t, err)

	region := grid.Bounds{Min: grid.Cell{X: -6, Y: -6}, Max: grid.Cell{X: 6, Y: 6}}
	region.Cells(func(cell grid.Cell) bool {
		rec.got = nil
		require.NoError(t, ix.SetTile(0, cell, tile.Static("w")))

		own := ix.Layout().CellToChunk(cell)
		var want []grid.Cell
		for _, off := range grid.MooreOffsets {
			n := cell.Add(off)
			if ix.Layout().CellToChunk(n) != own {
				want = append(want, n)
			}
		}
		assert.Equal(t, want, rec.cellsOrNil(), "cell %s", cell)
		return true
	})
}

func (r *recorder) cellsOrNil() []grid.Cell {
	if len(r.got) == 0 {
		return nil
	}
	return r.cells()
}

func TestSetTile_RefreshRadius(t *testing.T) {
	ix, rec := newTestIndex(t, WithRefreshRadius(2))
	ground, _ := ix.Layer("Ground")

	require.NoError(t, ix.SetTile(ground, grid.Cell{X: 62, Y: 10}, tile.Static("wall")))

	assert.Contains(t, rec.cells(), grid.Cell{X: 64, Y: 10})
	for _, c := range rec.cells() {
		assert.GreaterOrEqual(t, c.X, 64)
	}
}

func TestBatch_SuppressesAutoEnqueue(t *testing.T) {
	ix, rec := newTestIndex(t)
	ground, _ := ix.Layer("Ground")

	err := ix.Batch(func() error {
		for y := 0; y < 64; y++ {
			if err := ix.SetTile(ground, grid.Cell{X: 63, Y: y}, tile.Static("wall")); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, rec.got)

	require.NoError(t, ix.SetTile(ground, grid.Cell{X: 63, Y: 0}, tile.Static("wall")))
	assert.NotEmpty(t, rec.got)
}

func TestClearTile(t *testing.T) {
	ix, _ := newTestIndex(t)
	ground, _ := ix.Layer("Ground")
	cell := grid.Cell{X: 5, Y: 5}

	require.NoError(t, ix.SetTile(ground, cell, tile.Static("grass")))
	require.NoError(t, ix.ClearTile(ground, cell))

	assert.Equal(t, tile.Empty, ix.GetTile(ground, cell))
	assert.Equal(t, 0, ix.Chunk(grid.ChunkCoord{}).Len(ground))
}

func TestChunksOverlapping(t *testing.T) {
	ix, _ := newTestIndex(t)

	got := ix.ChunksOverlapping(grid.Bounds{Min: grid.Cell{X: 60, Y: 10}, Max: grid.Cell{X: 64, Y: 11}})
	assert.Equal(t, []grid.ChunkCoord{{X: 0, Y: 0}, {X: 1, Y: 0}}, got)
	assert.Empty(t, ix.ExistingChunksOverlapping(grid.Bounds{Min: grid.Cell{X: 60, Y: 10}, Max: grid.Cell{X: 64, Y: 11}}))

	ix.EnsureChunk(grid.ChunkCoord{X: 1, Y: 0})
	assert.Equal(t, []grid.ChunkCoord{{X: 1, Y: 0}},
		ix.ExistingChunksOverlapping(grid.Bounds{Min: grid.Cell{X: 60, Y: 10}, Max: grid.Cell{X: 64, Y: 11}}))
}

func TestCoordsSortedAndRemoveChunk(t *testing.T) {
	ix, _ := newTestIndex(t)
	for _, c := range []grid.ChunkCoord{{X: 1, Y: 1}, {X: -1, Y: 0}, {X: 0, Y: 1}, {X: 2, Y: -3}} {
		ix.EnsureChunk(c)
	}

	assert.Equal(t, []grid.ChunkCoord{{X: 2, Y: -3}, {X: -1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}, ix.Coords())

	assert.True(t, ix.RemoveChunk(grid.ChunkCoord{X: 0, Y: 1}))
	assert.False(t, ix.RemoveChunk(grid.ChunkCoord{X: 0, Y: 1}))
	assert.Equal(t, 3, ix.Len())
}

func TestEnsureChunk_Idempotent(t *testing.T) {
	ix, _ := newTestIndex(t)

	a := ix.EnsureChunk(grid.ChunkCoord{X: -2, Y: 5})
	b := ix.EnsureChunk(grid.ChunkCoord{X: -2, Y: 5})
	assert.Same(t, a, b)
	assert.Equal(t, grid.Cell{X: -128, Y: 320}, a.Origin())
}

func TestRebuild_SameLayoutKeepsData(t *testing.T) {
	ix, rec := newTestIndex(t)
	ground, _ := ix.Layer("Ground")
	require.NoError(t, ix.SetTile(ground, grid.Cell{X: 70, Y: -3}, tile.Static("grass")))
	ix.EnsureChunk(grid.ChunkCoord{X: 9, Y: 9})
	rec.got = nil

	stats, err := ix.Rebuild(ix.Layout())
	require.NoError(t, err)

	assert.Equal(t, RebuildStats{ChunksBefore: 2, ChunksAfter: 2, Tiles: 1}, stats)
	assert.Equal(t, tile.Static("grass"), ix.GetTile(ground, grid.Cell{X: 70, Y: -3}))
	assert.Empty(t, rec.got)
}

func TestRebuild_RepartitionsTiles(t *testing.T) {
	ix, _ := newTestIndex(t)
	ground, _ := ix.Layer("Ground")
	decor, _ := ix.Layer("Decor")
	cells := []grid.Cell{{X: 0, Y: 0}, {X: 63, Y: 63}, {X: -1, Y: 40}, {X: 100, Y: -100}}
	for _, c := range cells {
		require.NoError(t, ix.SetTile(ground, c, tile.Static("grass")))
	}
	require.NoError(t, ix.SetTile(decor, grid.Cell{X: 17, Y: 17}, tile.Rule("flower")))

	layout := ix.Layout()
	layout.ChunkSize = grid.Size{W: 16, H: 16}
	stats, err := ix.Rebuild(layout)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Tiles)
	assert.Equal(t, 16, ix.Layout().ChunkSize.W)
	for _, c := range cells {
		assert.Equal(t, tile.Static("grass"), ix.GetTile(ground, c), "cell %s", c)
	}
	assert.Equal(t, tile.Rule("flower"), ix.GetTile(decor, grid.Cell{X: 17, Y: 17}))
	assert.True(t, ix.Has(grid.ChunkCoord{X: 3, Y: 3}))
	assert.True(t, ix.Has(grid.ChunkCoord{X: -1, Y: 2}))
	assert.Equal(t, 5, ix.Len())
}

func TestRebuild_RejectsInvalidLayout(t *testing.T) {
	ix, _ := newTestIndex(t)

	_, err := ix.Rebuild(grid.Layout{ChunkSize: grid.Size{W: 0, H: 8}})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, 64, ix.Layout().ChunkSize.W)
}

func TestRebuild_FailedMoveLeavesIndexUntouched(t *testing.T) {
	ix, _ := newTestIndex(t)
	ground, _ := ix.Layer("Ground")
	require.NoError(t, ix.SetTile(ground, grid.Cell{X: 5, Y: 5}, tile.Static("grass")))

	// A chunk carrying a layer the registry does not know cannot be moved.
	before := ix.Layout()
	stray := grid.ChunkCoord{X: 2, Y: 0}
	c := chunk.New(stray, before.ChunkOrigin(stray), before.ChunkSize, ix.Layers().Len()+1)
	_, err := c.Set(layer.ID(ix.Layers().Len()), grid.Cell{X: 1, Y: 1}, tile.Static("ghost"))
	require.NoError(t, err)
	ix.chunks[stray] = c

	layout := before
	layout.ChunkSize = grid.Size{W: 16, H: 16}
	_, err = ix.Rebuild(layout)
	require.ErrorIs(t, err, chunk.ErrBadLayer)

	assert.Equal(t, before, ix.Layout())
	assert.Equal(t, 2, ix.Len())
	assert.Same(t, c, ix.Chunk(stray))
	assert.Equal(t, tile.Static("grass"), ix.GetTile(ground, grid.Cell{X: 5, Y: 5}))
}
