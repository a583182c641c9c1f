// Package middleware provides the net/http request guards consumed by the
// host's routing layer: access- and refresh-credential gates, an authority
// gate for administrative routes, the anti-forgery checks, and a panic
// boundary.
//
// Guards translate the engine's typed errors into 401/403 responses whose
// bodies carry a stable machine-checkable code; internal detail never
// reaches the client.
package middleware
