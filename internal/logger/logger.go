package logger

import "go.uber.org/zap"

// Log is the shared logger. It starts as a no-op so library packages can log
// unconditionally; Init swaps in a real logger.
var Log = zap.NewNop()

var initialized bool

// Init replaces the no-op logger with a development logger.
// Safe to call more than once.
func Init() {
	if initialized {
		return
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	Log = l
	initialized = true
}
