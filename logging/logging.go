// Package logging wraps logrus with the dual-sink behavior the GUI twin
// needs: every line goes to logrus's stdout text formatter (for the CLI) and
// to a buffered string the GUI drains on its own refresh cadence.
package logging

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"husk/gui"
)

const logRefreshRate = 64

var logRefreshDelay = time.Duration((1.0 / logRefreshRate) * float64(time.Second))

// Logger satisfies job.Logger (WriteToLog). The *logrus.Logger it writes
// through is not exposed to callers.
type Logger struct {
	log *logrus.Logger
	g   *gui.GUI

	mu            sync.Mutex
	bufferedUILog string
}

// NewLogger builds a Logger over a fresh *logrus.Logger (text formatter,
// stdout) and starts the GUI drain loop if g is non-nil.
func NewLogger(ctx context.Context, g *gui.GUI) *Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	l := &Logger{log: log, g: g}
	if g != nil {
		go l.displayLogLoop(ctx)
	}
	return l
}

// WriteToLog writes message to the logrus sink and, if a GUI is attached,
// buffers it for the GUI's next drain.
func (l *Logger) WriteToLog(message string) {
	l.log.Info(message)
	if l.g == nil {
		return
	}
	l.mu.Lock()
	l.bufferedUILog += message + "\n"
	l.mu.Unlock()
}

func (l *Logger) displayLogLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			time.Sleep(logRefreshDelay)

			l.mu.Lock()
			pending := l.bufferedUILog
			l.mu.Unlock()
			if pending == "" {
				continue
			}
			if l.g.WriteToLog(pending) {
				l.mu.Lock()
				l.bufferedUILog = l.bufferedUILog[len(pending):]
				l.mu.Unlock()
			}
		}
	}
}
