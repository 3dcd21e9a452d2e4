//go:build debug
// +build debug

package log

import (
	"os"

	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"
)

var (
	Log = logrus.New()
)

func init() {
	Log.SetOutput(os.Stderr)
	Log.SetLevel(logrus.DebugLevel)
	Log.SetReportCaller(true)
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "01-02 15:04:05",
	})
}

// Config represents the logger configuration.
type Config struct {
	Level  string
	Format string
	Output string
	Debug  bool
}

// Init keeps debug defaults but honors an explicit output file.
func Init(config *Config) error {
	if config == nil || config.Output == "" {
		return nil
	}
	file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	Log.SetOutput(file)
	return nil
}

func Entry(component string) *logrus.Entry {
	return Log.WithField("component", component)
}

func WithField(key string, value interface{}) *logrus.Entry {
	return Log.WithField(key, value)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return Log.WithFields(fields)
}

func WithError(err error) *logrus.Entry {
	return Log.WithError(err)
}

func Debug(args ...interface{}) {
	Log.Debug(args...)
}

func Debugf(format string, args ...interface{}) {
	Log.Debugf(format, args...)
}

func Info(args ...interface{}) {
	Log.Info(args...)
}

func Infof(format string, args ...interface{}) {
	Log.Infof(format, args...)
}

func Warn(args ...interface{}) {
	Log.Warn(args...)
}

func Warnf(format string, args ...interface{}) {
	Log.Warnf(format, args...)
}

func Error(args ...interface{}) {
	Log.Error(args...)
}

func Errorf(format string, args ...interface{}) {
	Log.Errorf(format, args...)
}

func Fatal(args ...interface{}) {
	Log.Fatal(args...)
}

func Fatalf(format string, args ...interface{}) {
	Log.Fatalf(format, args...)
}

// Pretty renders complex structs with kr/pretty. Costy.
func Pretty(format string, args ...interface{}) {
	formatted := make([]interface{}, len(args))
	for i, arg := range args {
		if arg == nil {
			formatted[i] = "<nil>"
			continue
		}
		formatted[i] = pretty.Sprint(arg)
	}
	Log.Debugf(format, formatted...)
}
