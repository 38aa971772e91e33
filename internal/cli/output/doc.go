// Package output renders govmesh-cli results.
//
//   - formatter.go: Format parsing and the Formatter factory
//   - table.go: reflective table rendering with wide mode support
//   - encode.go: JSON and YAML output
//   - progress.go: byte counter for backup downloads
//
// JSON and YAML go through the API's JSON encoding so amounts keep their
// decimal string form in every format.
package output
