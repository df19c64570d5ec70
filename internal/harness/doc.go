// Package harness runs chunk grid scenarios through the edit engine.
//
// A scenario builds a fresh partition index, registers rule sets, submits
// edits to an engine, ticks it, and then checks assertions against the final
// grid and the render trace. The trace is every output the refresh queue
// signalled, in order, stamped with the tick that produced it.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: wall_on_chunk_edge
//	description: "A wall on the east edge of chunk (0,0) shades its neighbor"
//	config:
//	  layout: { chunk_size: { w: 64, h: 64 }, overlap: 1 }
//	  layers: [Ground, Objects]
//	rules:
//	  - ../rules/dungeon.cue
//	definitions:
//	  - tile: floor
//	    layer: Objects
//	    default: { sprite: floor }
//	    rules:
//	      - sprite: floor_shadow_w
//	        conditions: [{ dx: -1, dy: 0, expect: not_match }]
//	budget: 1
//	steps:
//	  - { op: set, layer: Objects, cell: { x: 64, y: 10 }, tile: "rule:floor" }
//	  - { op: settle, count: 20 }
//	assertions:
//	  - { type: rendered, layer: Objects, cell: { x: 64, y: 10 }, sprite: floor }
//
// Edit steps (set, clear, fill, ensure_chunk, rebuild, refresh) are submitted
// to the engine and take effect on the next tick. tick runs count ticks
// (default 1); settle ticks until the refresh queue is empty, at most count
// ticks (default 1000); evict drops least recently used chunks down to count.
//
// # Assertion Types
//
//   - tile: the stored value at a cell equals tile
//   - rendered: the last signalled output of a cell has sprite (and variant
//     and orientation, when given)
//   - pending: a refresh request for the cell is (or with pending: false, is
//     not) queued
//   - queue_len: the refresh queue holds exactly count requests
//   - chunks: exactly the listed chunk coordinates exist
//   - signal_count: the trace holds count signals, optionally for one cell
//
// # Determinism
//
// Ticks are numbered by testutil.Sequence and journals use a fixed run ID,
// so the same scenario always yields the same trace and golden file.
package harness
