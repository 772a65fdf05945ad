// Package estimate implements sequential estimators for line-oriented
// streams: compression ratio, decoded size, mean line length and line count.
//
// Each estimator samples from the start of the stream and stops as soon as a
// Chebyshev bound guarantees the requested accuracy. With
// k = 1/sqrt(1-probability), sampling stops once k times the estimated
// standard error is at most the maximum error and the bootstrap sample size
// has been reached. Reaching the end of the stream also stops sampling; the
// result is then exact for the data seen.
//
// Estimators restore the stream offset on every exit path unless
// WithKeepPosition is given, so they can run as a cheap pass before the real
// read begins.
package estimate
