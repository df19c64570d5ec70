package index

import (
	"fmt"
	"log/slog"

	"github.com/roach88/chunkgrid/internal/chunk"
	"github.com/roach88/chunkgrid/internal/grid"
	"github.com/roach88/chunkgrid/internal/layer"
)

// RebuildStats summarises a Rebuild pass.
type RebuildStats struct {
	ChunksBefore int
	ChunksAfter  int
	Tiles        int
}

// Rebuild re-partitions every stored tile into layout.
//
// With an unchanged layout this rebuilds the coordinate map from the chunks'
// own coordinates, which repairs nothing in a healthy index but is the
// explicit structural rescan hook. With a new chunk size, origin or overlap
// every non-empty tile is moved to its owner under the new layout. Empty
// chunks are preserved only when the layout is unchanged.
//
// Rebuild never enqueues refresh requests; callers re-resolve afterwards.
func (ix *Index) Rebuild(layout grid.Layout) (RebuildStats, error) {
	if err := validateLayout(layout); err != nil {
		return RebuildStats{}, err
	}
	stats := RebuildStats{ChunksBefore: len(ix.chunks)}

	if layout == ix.layout {
		rebuilt := make(map[grid.ChunkCoord]*chunk.Chunk, len(ix.chunks))
		for _, c := range ix.chunks {
			rebuilt[c.Coord()] = c
			stats.Tiles += c.Total()
		}
		ix.chunks = rebuilt
		stats.ChunksAfter = len(rebuilt)
		ix.logger.Info("index rebuilt", slog.Int("chunks", stats.ChunksAfter), slog.Int("tiles", stats.Tiles))
		return stats, nil
	}

	// Build into a fresh map so a failed move leaves the index untouched.
	numLayers := ix.layers.Len()
	moved := make(map[grid.ChunkCoord]*chunk.Chunk, len(ix.chunks))
	for _, coord := range ix.Coords() {
		c := ix.chunks[coord]
		for id := 0; id < c.NumLayers(); id++ {
			lid := layer.ID(id)
			for _, e := range c.Entries(lid) {
				cell := c.Origin().Add(e.Local)
				nc, local := layout.Locate(cell)
				dst, ok := moved[nc]
				if !ok {
					dst = chunk.New(nc, layout.ChunkOrigin(nc), layout.ChunkSize, numLayers)
					moved[nc] = dst
				}
				if _, err := dst.Set(lid, local, e.Value); err != nil {
					return RebuildStats{ChunksBefore: stats.ChunksBefore}, fmt.Errorf("move %s: %w", cell, err)
				}
				stats.Tiles++
			}
		}
	}
	ix.layout = layout
	ix.chunks = moved
	stats.ChunksAfter = len(moved)
	ix.logger.Info("index re-partitioned",
		"chunk_w", layout.ChunkSize.W,
		"chunk_h", layout.ChunkSize.H,
		"overlap", layout.Overlap,
		"chunks_before", stats.ChunksBefore,
		"chunks_after", stats.ChunksAfter,
		"tiles", stats.Tiles,
	)
	return stats, nil
}
