// Package viz renders orbits and run summaries for the terminal.
//
// Orbits are drawn on a Braille [Canvas] through a [Viewport] that keeps
// both axes at the same scale, so the horizon circle stays round. Radial
// profiles and the effective potential go through asciigraph, and the run
// summaries ([Report], [SweepReport], [ScenarioReport], [EnsembleReport])
// are styled with lipgloss from a [Theme].
package viz
