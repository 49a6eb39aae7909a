package types

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/journald"
)

const logDir = "/var/log/diskenc"

func isJournaldAvailable() bool {
	conn, err := net.Dial("unixgram", "/run/systemd/journal/socket")
	if err != nil {
		return false
	}
	defer conn.Close()
	return true
}

// NewAgentLogger creates a logger with the given name and level. Output goes
// to journald when available, otherwise to a file under /var/log/diskenc, and
// to the console unless quiet is set. The level can be overridden with the
// $NAME_DEBUG and $NAME_TRACE environment variables.
func NewAgentLogger(name, level string, quiet bool) AgentLogger {
	var writers []io.Writer
	var fileLock *flock.Flock
	var logfile *os.File

	journal := isJournaldAvailable()
	if journal {
		writers = append(writers, journald.NewJournalDWriter())
	} else {
		logName := filepath.Join(logDir, fmt.Sprintf("%s.log", name))
		_ = os.MkdirAll(logDir, os.ModeDir|os.ModePerm)

		f, err := os.OpenFile(logName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			logfile = f
			writers = append(writers, zerolog.ConsoleWriter{Out: logfile, TimeFormat: time.RFC3339, NoColor: true})
		}

		fileLock = flock.New(logName + ".lock")
	}

	if !quiet {
		writers = append(writers, zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.TimeFormat = time.RFC3339
		}))
	}

	l, err := zerolog.ParseLevel(level)
	if err != nil {
		l = zerolog.InfoLevel
	}
	if os.Getenv(fmt.Sprintf("%s_DEBUG", envName(name))) != "" {
		l = zerolog.DebugLevel
	}
	if os.Getenv(fmt.Sprintf("%s_TRACE", envName(name))) != "" {
		l = zerolog.TraceLevel
	}

	multi := zerolog.MultiLevelWriter(writers...)
	a := AgentLogger{
		zerolog.New(multi).With().Timestamp().Logger().Level(l),
		fileLock,
		logfile,
		journal,
	}

	runtime.SetFinalizer(&a, func(a *AgentLogger) {
		a.Cleanup()
	})

	return a
}

func envName(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// NewBufferLogger returns a logger writing only to b, for tests.
func NewBufferLogger(b *bytes.Buffer) AgentLogger {
	return AgentLogger{zerolog.New(b).With().Timestamp().Logger(), nil, nil, true}
}

// NewNullLogger returns a logger that discards everything.
func NewNullLogger() AgentLogger {
	return AgentLogger{zerolog.New(io.Discard).With().Timestamp().Logger(), nil, nil, true}
}

// AgentLogger wraps zerolog with the file-locking the shared agent log needs.
type AgentLogger struct {
	zerolog.Logger
	fileLock *flock.Flock
	logFile  *os.File
	journald bool
}

func (a *AgentLogger) Cleanup() {
	if a.fileLock != nil {
		a.fileLock.Lock()
		defer a.fileLock.Unlock()
	}
	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}
	if a.fileLock != nil {
		a.fileLock.Unlock()
		a.fileLock = nil
	}
}

func (a *AgentLogger) SetLevel(level string) {
	l, _ := zerolog.ParseLevel(level)
	a.Logger = a.Logger.Level(l)
}

func (a AgentLogger) GetLevel() zerolog.Level {
	return a.Logger.GetLevel()
}

func (a AgentLogger) IsDebug() bool {
	return a.Logger.GetLevel() == zerolog.DebugLevel
}

// printf-style helpers. When logging to the shared file the line is prefixed
// with the pid and guarded by the file lock, since several session processes
// may append at once.

func (a AgentLogger) logf(level zerolog.Level, tpl string, args ...interface{}) {
	if !a.journald {
		a.fileLock.Lock()
		defer a.fileLock.Unlock()
		tpl = fmt.Sprintf("[%v] ", os.Getpid()) + tpl
	}
	a.Logger.WithLevel(level).Msg(fmt.Sprintf(tpl, args...))
}

func (a AgentLogger) Infof(tpl string, args ...interface{}) {
	a.logf(zerolog.InfoLevel, tpl, args...)
}

func (a AgentLogger) Warnf(tpl string, args ...interface{}) {
	a.logf(zerolog.WarnLevel, tpl, args...)
}

func (a AgentLogger) Debugf(tpl string, args ...interface{}) {
	a.logf(zerolog.DebugLevel, tpl, args...)
}

func (a AgentLogger) Errorf(tpl string, args ...interface{}) {
	a.logf(zerolog.ErrorLevel, tpl, args...)
}

func (a AgentLogger) Tracef(tpl string, args ...interface{}) {
	a.logf(zerolog.TraceLevel, tpl, args...)
}
