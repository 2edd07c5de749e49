// Package analysis turns a finished trajectory into a verdict.
//
//   - [TurningPoints]: periapses and apoapses from sign changes of v_r
//   - [Classifier]: labels an orbit plunging, scattering, circular,
//     precessing or indeterminate from its shape and termination
//   - [GeneratePhasePortrait]: the (r, v_r) plane
//   - [PeriapsisSection]: periapsis positions, which show precession
//   - [RadialSpectrum]: FFT of r(τ), an independent radial period estimate
//
// # Classification
//
// Labels come from the trajectory alone, never from the initial parameters:
//
//	c, err := analysis.NewClassifier(model).Classify(tr)
//	if c.Label == analysis.LabelIndeterminate {
//	    // integrate longer
//	}
package analysis
