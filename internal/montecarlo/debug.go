package montecarlo

import (
	"io"
	"log"
)

var (
	opsLogger   *log.Logger
	diagLogger  *log.Logger
	traceLogger *log.Logger
)

// SetLogWriters configures the three logging streams for the transport
// kernel. Pass nil for any writer to disable that stream; disabled
// streams cost a nil check and nothing else on the hot path.
func SetLogWriters(ops, diag, trace io.Writer) {
	opsLogger = newLogger("[montecarlo] ", ops)
	diagLogger = newLogger("[montecarlo] ", diag)
	traceLogger = newLogger("[montecarlo] ", trace)
}

func newLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

// opsf logs to the ops stream (numeric anomalies, precondition trouble).
func opsf(format string, args ...interface{}) {
	if opsLogger != nil {
		opsLogger.Printf(format, args...)
	}
}

// diagf logs to the diag stream (run summaries, per-worker tallies).
func diagf(format string, args ...interface{}) {
	if diagLogger != nil {
		diagLogger.Printf(format, args...)
	}
}

// tracef logs to the trace stream (per-packet event telemetry).
func tracef(format string, args ...interface{}) {
	if traceLogger != nil {
		traceLogger.Printf(format, args...)
	}
}
