// Package engine serialises edits to a chunked grid and drives the refresh
// queue on a fixed tick.
//
// ARCHITECTURE:
//
// Single-Writer Edit Loop:
// The index, rule evaluator and refresh queue are unsynchronised. The engine
// owns them and mutates them from one goroutine only. Other goroutines submit
// edits, which are applied in FIFO order.
//
// Tick Flow:
//  1. Edits submitted via Submit/Do land in a mutex-guarded FIFO
//  2. Run applies queued edits as they arrive
//  3. On every tick Run drains at most Budget refresh requests
//  4. The refresh queue signals the renderer for outputs that changed
//
// Hosts that already have a frame loop skip Run and call Tick from that loop.
//
// Tick numbers come from a logical clock, never the wall clock, so the same
// edit sequence yields the same tick-numbered render trace.
package engine
