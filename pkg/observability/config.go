// Package observability provides OpenTelemetry tracing and metrics plus structured
// logging for exhume runs.
package observability

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	// defaultServiceName is the default OTel service name.
	defaultServiceName = "exhume"

	// defaultShutdownTimeoutSec is the default shutdown timeout in seconds.
	defaultShutdownTimeoutSec = 5
)

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the semantic version of the running binary.
	ServiceVersion string

	// RunID identifies one invocation in every log record. Empty generates one.
	RunID string

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables export.
	OTLPEndpoint string

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool

	// MetricsTextfile, when set, receives the metrics in Prometheus text format on
	// shutdown, for the node_exporter textfile collector.
	MetricsTextfile string

	// LogLevel controls the minimum slog severity.
	LogLevel slog.Level

	// LogJSON enables JSON-formatted log output.
	LogJSON bool

	// LogWriter receives log output. Nil means stderr.
	LogWriter io.Writer

	// ShutdownTimeoutSec is the maximum seconds to wait for flush on shutdown.
	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config that only logs warnings to stderr.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		LogLevel:           slog.LevelWarn,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}

// ParseLogLevel maps debug, info, warn and error to slog levels.
func ParseLogLevel(name string) (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(strings.TrimSpace(name)))
	if err != nil {
		return slog.LevelWarn, fmt.Errorf("parse log level: %w", err)
	}

	return level, nil
}

func (c Config) logWriter() io.Writer {
	if c.LogWriter == nil {
		return os.Stderr
	}

	return c.LogWriter
}
