// Package httpserver serves the registry engine over HTTP.
//
// The server exposes the five registry operations plus a treasury
// accounting read, health and drain endpoints, an optional pprof mount,
// and a Prometheus metrics listener on a separate address. Mutations that
// apply successfully are persisted to the configured snapshot store in the
// background; persistence failures are logged and never revert an applied
// mutation.
//
// Engine rejections map onto HTTP statuses: unauthorized sealing is 403,
// an incorrect fee is 402, duplicate registrations and sealing conflicts
// are 409. Reads never fail on valid input; a missing commitment is a 404
// and an unknown phase index reads as empty.
package httpserver
