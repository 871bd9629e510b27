// Package hardware reflects the lamp grid onto physical or simulated boards.
//
// Three backends are available:
//
//   - null: accepts events and does nothing
//   - simulated: logs transitions and can feed the panel renderer
//   - gpio: shifts the grid out to an LED chain over GPIO character devices
//
// # Selection
//
// The backend type comes from configuration; anything missing, unreadable
// or unknown falls back to the simulated board:
//
//	b := hardware.New(hardware.Options{Config: cfg.Backend, Source: store})
//	group := hardware.NewGroup(store, logger, b)
//	n, _ := group.Connect(ctx)
//	defer group.Close()
//
// A board that fails to connect is skipped, never fatal.
package hardware
