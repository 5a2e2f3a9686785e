// Package analysis provides numerical helpers for sampled series.
//
//   - [Gradient]: second-order derivative of samples on a non-uniform grid
//   - [Crossing]: first time a monotone series reaches a level, by linear
//     interpolation
//
// The orbital frequency of a dynamics evaluation, for example, is
//
//	omega := analysis.Gradient(res.Phase, res.Times)
package analysis
