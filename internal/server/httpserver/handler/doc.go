// Package handler implements the GovMesh HTTP API on top of
// service.Governor.
//
// Every JSON response uses the same envelope:
//
//	{"code": "OK", "message": "Success", "request_id": "...", "timestamp": 1700000000000, "data": {...}}
//
// Failures carry the GM-<AREA>-<NNNN> code of the domain error in "code"
// and in the X-Error-Code header. The HTTP status is the first three digits
// of NNNN.
//
// Handlers do not authenticate. The caller of a mutating route is read from
// the request context (see WithPrincipal); the httpserver package populates
// it from the X-Principal header and guards the admin routes.
package handler
