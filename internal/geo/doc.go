// Package geo holds the location privacy pipeline: precision reduction,
// deterministic per-subject offsets, great-circle proximity filtering and
// de-collision of markers that share a coordinate.
//
// Every function in this package is pure and safe for concurrent use.
package geo
