// Package grid implements the coordinate math for a chunked tile world.
//
// Three coordinate spaces exist:
//   - absolute cells: the global, unbounded integer grid (Cell)
//   - chunk coordinates: which partition owns a cell (ChunkCoord)
//   - local cells: a cell relative to its chunk's origin, always in [0, size)
//
// Every conversion between the spaces goes through a Layout. No other package
// divides by the chunk size; they call Layout.CellToChunk, Layout.ChunkOrigin and
// LocalCoord instead.
//
// FLOOR DIVISION:
// Go's integer division truncates toward zero, so -1/64 == 0. Chunk math needs
// floor semantics (-1 belongs to chunk -1), which FloorDiv provides.
//
// All functions here are pure and total.
package grid
