package xpath

import (
	"io"
	"log/slog"
	"os"
)

// Tracer observes the compiler entering and leaving grammar rules.
type Tracer interface {
	Enter(string, Token)
	Leave(string, Token)
}

type discardTracer struct{}

func (discardTracer) Enter(_ string, _ Token) {}
func (discardTracer) Leave(_ string, _ Token) {}

type stdioTracer struct {
	logger *slog.Logger
	depth  int
}

func TraceStdout() Tracer {
	return &stdioTracer{
		logger: stdioLogger(os.Stdout),
	}
}

func TraceStderr() Tracer {
	return &stdioTracer{
		logger: stdioLogger(os.Stderr),
	}
}

func stdioLogger(w io.Writer) *slog.Logger {
	opts := slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	return slog.New(slog.NewTextHandler(w, &opts))
}

func (t *stdioTracer) Enter(rule string, tok Token) {
	t.depth++
	t.logger.Debug("enter rule",
		"rule", rule,
		"token", tok.String(),
		"line", tok.Line,
		"column", tok.Column,
		"depth", t.depth,
	)
}

func (t *stdioTracer) Leave(rule string, tok Token) {
	t.logger.Debug("leave rule",
		"rule", rule,
		"token", tok.String(),
		"depth", t.depth,
	)
	t.depth--
}
