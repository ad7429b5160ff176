package kernel

import (
	"context"
	"sync/atomic"
)

// Logger forwards lines to the logger endpoint as MsgLog messages. It never
// blocks: lines that do not fit in the mailbox are counted and dropped.
type Logger struct {
	sys     *System
	from    Endpoint
	dropped atomic.Uint64
}

// Logger returns a line logger sending on behalf of from.
func (s *System) Logger(from Endpoint) *Logger {
	return &Logger{sys: s, from: from}
}

func (l *Logger) WriteLineString(s string) {
	if len(s) > MaxMessageBytes {
		s = s[:MaxMessageBytes]
	}
	l.send([]byte(s))
}

func (l *Logger) WriteLineBytes(b []byte) {
	if len(b) > MaxMessageBytes {
		b = b[:MaxMessageBytes]
	}
	l.send(b)
}

func (l *Logger) send(b []byte) {
	ok, err := l.sys.TrySend(l.from, EPLogger, MsgLog, b)
	if err != nil || !ok {
		l.dropped.Add(1)
	}
}

// Dropped returns the number of lines lost to a full mailbox.
func (l *Logger) Dropped() uint64 { return l.dropped.Load() }

// LineWriter is where PumpLogs delivers log lines.
type LineWriter interface {
	WriteLineBytes(b []byte)
}

// PumpLogs drains the logger endpoint into out until ctx is done.
func (s *System) PumpLogs(ctx context.Context, out LineWriter) error {
	for {
		msg, err := s.RecvContext(ctx, EPLogger)
		if err != nil {
			return err
		}
		if msg.Kind == MsgLog {
			out.WriteLineBytes(msg.Payload())
		}
	}
}
