// Package logger configures structured logging for govmesh-server.
//
// Records go through three layers: a JSON or text slog handler, an
// attribute redactor that masks admin keys and credential-like fields, and
// a context handler that stamps request_id and principal onto any record
// logged with a *Context method. The governance services log through the
// standard *slog.Logger, so a call made inside an HTTP request carries that
// request's identifiers without passing them explicitly.
//
// The level is held in a slog.LevelVar and can be changed at runtime with
// SetLevel.
package logger
