package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/2beens/intervaltimer/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultMaxSizeMB   = 50
	defaultMaxBackups  = 10
	defaultMaxAgeDays  = 90
	defaultLevel       = logrus.InfoLevel
	sentryFlushTimeout = 2 * time.Second
)

type LoggerSetupParams struct {
	LogFileName   string
	LogToStdout   bool
	LogLevel      string
	LogFormatJSON bool

	// rotation of LogFileName, zero values pick the defaults
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	Environment      string
	SentryEnabled    bool
	SentryDSN        string
	SentryServerName string
}

// Setup configures the standard logrus logger: level, format, output and the
// optional sentry hook. Without a log file name logs only go to STDOUT.
func Setup(params LoggerSetupParams) {
	logrus.SetFormatter(formatter(params.LogFormatJSON))
	logrus.SetLevel(GetLevel(params.LogLevel))

	if params.SentryEnabled {
		setupSentry(params)
	}

	if params.LogFileName == "" {
		logrus.SetOutput(os.Stdout)
		logrus.Debugln("writing logs only to STDOUT")
		return
	}

	logFile := rotatingFile(params)
	logrus.SetOutput(output(params.LogToStdout, logFile))
	logrus.Debugf("writing logs to [%s], stdout: %t", logFile.Filename, params.LogToStdout)
}

func formatter(json bool) logrus.Formatter {
	if json {
		return &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano}
	}
	return &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339}
}

func setupSentry(params LoggerSetupParams) {
	err := sentry.Init(sentry.ClientOptions{
		Environment:      params.Environment,
		Dsn:              params.SentryDSN,
		TracesSampleRate: 1.0,
		ServerName:       params.SentryServerName,
	})
	if err != nil {
		logrus.Errorf("sentry.Init: %s", err)
		return
	}

	logrus.AddHook(NewSentryHook([]logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
	}))
	// fatal logs exit the process, give the hook a chance to deliver
	logrus.RegisterExitHandler(func() {
		sentry.Flush(sentryFlushTimeout)
	})

	logrus.Infoln("sentry set up successfully")
}

func rotatingFile(params LoggerSetupParams) *lumberjack.Logger {
	fileName := params.LogFileName
	if !strings.HasSuffix(fileName, ".log") {
		fileName += ".log"
	}

	return &lumberjack.Logger{
		Filename:   fileName,
		MaxSize:    orDefault(params.LogMaxSizeMB, defaultMaxSizeMB),
		MaxBackups: orDefault(params.LogMaxBackups, defaultMaxBackups),
		MaxAge:     orDefault(params.LogMaxAgeDays, defaultMaxAgeDays),
		LocalTime:  false, // UTC
		Compress:   true,
	}
}

func output(toStdout bool, logFile io.Writer) io.Writer {
	if toStdout {
		return pkg.NewTeeWriter(os.Stdout, logFile)
	}
	return logFile
}

func orDefault(value, def int) int {
	if value <= 0 {
		return def
	}
	return value
}

// GetLevel parses a logrus level name, case insensitive. Unknown names give Info.
func GetLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return defaultLevel
	}
	return parsed
}
