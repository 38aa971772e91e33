// Package connection is the govmesh-cli HTTP client.
//
// HTTPClient speaks the server's JSON envelope: successful calls decode the
// data member into the caller's value, failures come back as *APIError
// carrying the GM-* code.
package connection
