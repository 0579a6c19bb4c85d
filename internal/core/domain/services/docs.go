// Package services provides domain services that implement business logic
// spanning the order aggregate and external data, such as routing distances.
//
// The package includes:
//   - ETAEstimator: derives an advisory delivery estimate from an order's
//     timeline, its route geometry and a configured average rider speed
//
// Domain services here are pure: they never touch persistence and never
// mutate the aggregates they read.
package services
