package logging

import (
	plog "github.com/prometheus/common/log"
)

// PrometheusLogger adapts github.com/prometheus/common/log to the
// Logger interface. This is the backend the teacher's transport code
// (pkg/mcast/core/transport.go) reached for directly; here it backs the
// node/runtime test harnesses, which construct a Runtime directly and
// have no need for LogrusLogger's coloring. The five node binaries
// default to LogrusLogger instead.
type PrometheusLogger struct {
	debug bool
}

// NewPrometheusLogger constructs the prometheus/common-backed logger.
func NewPrometheusLogger() *PrometheusLogger {
	return &PrometheusLogger{}
}

func (l *PrometheusLogger) Info(v ...interface{})                 { plog.Info(v...) }
func (l *PrometheusLogger) Infof(format string, v ...interface{}) { plog.Infof(format, v...) }
func (l *PrometheusLogger) Warn(v ...interface{})                 { plog.Warn(v...) }
func (l *PrometheusLogger) Warnf(format string, v ...interface{}) { plog.Warnf(format, v...) }
func (l *PrometheusLogger) Error(v ...interface{})                { plog.Error(v...) }
func (l *PrometheusLogger) Errorf(format string, v ...interface{}) {
	plog.Errorf(format, v...)
}
func (l *PrometheusLogger) Debug(v ...interface{}) {
	if l.debug {
		plog.Debug(v...)
	}
}
func (l *PrometheusLogger) Debugf(format string, v ...interface{}) {
	if l.debug {
		plog.Debugf(format, v...)
	}
}
func (l *PrometheusLogger) Fatal(v ...interface{})                 { plog.Fatal(v...) }
func (l *PrometheusLogger) Fatalf(format string, v ...interface{}) { plog.Fatalf(format, v...) }

func (l *PrometheusLogger) ToggleDebug(value bool) bool {
	l.debug = value
	return l.debug
}
