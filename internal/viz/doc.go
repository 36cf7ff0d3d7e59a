// Package viz renders fields and run progress in the terminal.
//
//   - [RenderField]: line plot of a 1D field, shaded map of a 2D field
//   - [PlotSeries]: time series of scalar summaries
//   - [Canvas]: Braille canvas used for profiles
//   - [Live]: Bubble Tea model following a running simulation
//
// # Key Bindings
//
//	Space - Freeze/unfreeze the display
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit (cancels the run)
package viz
