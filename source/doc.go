// Package source provides built-in event source implementations.
//
// Event sources produce the assignment timeline of tracked items.
// The package includes:
//
//   - Static: Fixed, scripted timelines per item
//
// The network-backed source lives in package timeline. Custom sources can be
// implemented by satisfying the types.EventSource interface.
package source
