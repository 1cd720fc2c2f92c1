package logging

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"
)

// LogrusLogger is the default Logger for the five node binaries. It
// promotes the teacher's indirect sirupsen/logrus dependency to direct
// use, pairing it with fatih/color level coloring and mattn/go-colorable
// so colored output degrades safely when stderr is not a TTY (the
// standard logrus combination for CLI tools).
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger builds a logrus-backed Logger writing to stderr only
// — stdout is reserved for wire replies.
func NewLogrusLogger(nodeID string) *LogrusLogger {
	l := logrus.New()
	l.SetOutput(colorable.NewColorable(os.Stderr))
	l.SetFormatter(colorLevelFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return &LogrusLogger{entry: l.WithField("node", nodeID)}
}

// LevelColor returns the ANSI-colored label used for a given logrus
// level, mirroring the teacher's definition.level() prefix formatting
// but with fatih/color instead of a bare fmt.Sprintf bracket.
func LevelColor(level logrus.Level) *color.Color {
	switch level {
	case logrus.DebugLevel:
		return color.New(color.FgCyan)
	case logrus.WarnLevel:
		return color.New(color.FgYellow)
	case logrus.ErrorLevel, logrus.FatalLevel:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgGreen)
	}
}

// colorLevelFormatter renders "time [LEVEL] field=value... message",
// coloring the level label via LevelColor instead of handing the whole
// line over to logrus.TextFormatter's own (uncustomizable) coloring.
type colorLevelFormatter struct{}

func (colorLevelFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var buf bytes.Buffer
	label := LevelColor(entry.Level).Sprint(strings.ToUpper(entry.Level.String()))
	fmt.Fprintf(&buf, "%s [%s]", entry.Time.Format("2006-01-02T15:04:05.000Z07:00"), label)
	for k, v := range entry.Data {
		fmt.Fprintf(&buf, " %s=%v", k, v)
	}
	fmt.Fprintf(&buf, " %s\n", entry.Message)
	return buf.Bytes(), nil
}

func (l *LogrusLogger) Info(v ...interface{})                 { l.entry.Info(v...) }
func (l *LogrusLogger) Infof(format string, v ...interface{}) { l.entry.Infof(format, v...) }
func (l *LogrusLogger) Warn(v ...interface{})                 { l.entry.Warn(v...) }
func (l *LogrusLogger) Warnf(format string, v ...interface{}) { l.entry.Warnf(format, v...) }
func (l *LogrusLogger) Error(v ...interface{})                { l.entry.Error(v...) }
func (l *LogrusLogger) Errorf(format string, v ...interface{}) {
	l.entry.Errorf(format, v...)
}
func (l *LogrusLogger) Debug(v ...interface{})                 { l.entry.Debug(v...) }
func (l *LogrusLogger) Debugf(format string, v ...interface{}) { l.entry.Debugf(format, v...) }
func (l *LogrusLogger) Fatal(v ...interface{})                 { l.entry.Fatal(v...) }
func (l *LogrusLogger) Fatalf(format string, v ...interface{}) { l.entry.Fatalf(format, v...) }

func (l *LogrusLogger) ToggleDebug(value bool) bool {
	if value {
		l.entry.Logger.SetLevel(logrus.DebugLevel)
	} else {
		l.entry.Logger.SetLevel(logrus.InfoLevel)
	}
	return value
}
