package logger

import "go.uber.org/zap"

var global *zap.SugaredLogger

// Init sets the process-wide Zap logger once, from the CLI layer.
func Init(z *zap.SugaredLogger) { global = z }

// Logger returns the shared sugared logger. It must return a non-nil
// *SugaredLogger even before Init runs, so library code can log freely.
func Logger() *zap.SugaredLogger {
	if global == nil {
		return zap.NewNop().Sugar()
	}
	return global
}
