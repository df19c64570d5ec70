// Package store persists a render journal in SQLite.
//
// The journal is a refresh.Renderer: every output the refresh queue signals
// is appended as one row, stamped with a logical sequence number and the
// engine tick that produced it. Rows are ordered by seq, never by wall
// clock, so the same scenario yields the same journal.
//
// Chunk tile data is not stored here.
package store
