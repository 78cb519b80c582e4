package tcodec

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf
// but may be replaced by SetLogger; nothing in this package's core
// encode/decode path calls it today, but it is exposed for host code that
// wraps FrameEncoder/FrameDecoder and wants a single logging seam shared
// with the rest of the pipeline.
var Logf func(format string, args ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op.
func SetLogger(f func(format string, args ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
