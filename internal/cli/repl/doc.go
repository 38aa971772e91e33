// Package repl provides the interactive shell of govmesh-cli.
//
// The shell reads one command line at a time, splits it into arguments
// with shell-like quoting, and hands them to an executor. It keeps a
// bounded history on disk and offers prefix completion over the known
// command paths.
package repl
