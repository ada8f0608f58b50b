// Package analysis extracts features from sampled trajectories.
//
//   - [Peak]: largest value of a series and when it occurs, the usual
//     target when harvesting an intermediate such as oligomers
//   - [CrossingTime]: first time a decaying series falls to a level,
//     interpolated between samples
//   - [HalfLife]: crossing time at half of the initial value
//   - [SeverityFactor]: log10 of the reaction ordinate of an isothermal
//     treatment
//
// Peak times and crossing times are resolved only to the sample grid plus
// linear interpolation; finer answers need more samples.
package analysis
