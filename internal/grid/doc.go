// Package grid holds the lamp matrix of the punch card and fans out change
// notifications to its observers.
//
// A [Store] is constructed explicitly and handed to every component that
// reads or writes lamps:
//
//	store := grid.NewStore(grid.DefaultRows, grid.DefaultCols, logger)
//	sub := store.Subscribe(backend)
//	defer sub.Cancel()
//	store.SetColumn(0, pattern)
//
// # Events
//
// Single-cell changes are reported as (row, col). Column, row and
// whole-grid writes use [Sentinel] in place of the coordinate they cover:
// (-1, col), (row, -1) and (-1, -1).
//
// # Thread Safety
//
// All methods are safe for concurrent use. Observers run on the writer's
// goroutine after the store lock is released.
package grid
