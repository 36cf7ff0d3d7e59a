// Package analysis summarizes sampled fields.
//
// The package includes tools for characterizing runs after the fact:
//
//   - [PowerSpectrum]: power of every Fourier mode of a real sequence
//   - [StructureFactor]: power spectrum averaged over the lines of a field
//   - [DominantWavelength]: wavelength of the strongest non-uniform mode
//   - [Summarize] and [Trajectory]: volume-weighted moments per sample
//   - [Profile]: average of a field over every axis but one
//   - [DecayRate]: exponential rate fitted to an amplitude series
//
// # Coarsening
//
// The dominant wavelength of an Allen-Cahn run grows as domains merge:
//
//	for i, x := range states {
//	    l, _ := analysis.DominantWavelength(g, x, 0)
//	    fmt.Println(times[i], l)
//	}
package analysis
