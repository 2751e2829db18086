package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// The package-level loggers default to stdout only; InitLoggers upgrades
// them with rotating files under logs/.
var (
	InfoLogger  = logrus.New()
	WarnLogger  = logrus.New()
	ErrorLogger = logrus.New()
)

// InitLoggers sets up the package-level loggers. Each level writes to stdout
// and to a rotating file under logs/.
func InitLoggers() {
	InfoLogger = newLogger(logrus.InfoLevel, "logs/info.log")
	WarnLogger = newLogger(logrus.WarnLevel, "logs/warn.log")
	ErrorLogger = newLogger(logrus.ErrorLevel, "logs/error.log")
}

func newLogger(level logrus.Level, file string) *logrus.Logger {
	l := logrus.New()
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	rotator := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
	l.SetOutput(io.MultiWriter(os.Stdout, rotator))

	return l
}
