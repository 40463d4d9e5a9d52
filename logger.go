// Copyright (c) 2026 Oxide Computer Company
//
// logger.go — Logger interface and noop implementation used for decode
// diagnostics; swap in zap, slog, or logrus by passing a custom
// implementation through Options.Logger.

package ispf

// Logger is the logging interface used by Encoder and Decoder instances.
// Implement this to route logs to zap, slog, logrus, etc.
type Logger interface {
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	Debug(msg string, keysAndValues ...any)
}

type noopLogger struct{}

func (noopLogger) Info(_ string, _ ...any)  {}
func (noopLogger) Warn(_ string, _ ...any)  {}
func (noopLogger) Error(_ string, _ ...any) {}
func (noopLogger) Debug(_ string, _ ...any) {}
