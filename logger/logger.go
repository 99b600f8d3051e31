package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nijaru/vi-transcript/config"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logFileName = "app.log"

// New builds the application logger. When cfg.Dir is set, output also goes to
// a rotating file in that directory.
func New(cfg config.LogConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", cfg.Level)
	}

	logger := logrus.New()
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "", "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		return nil, errors.Errorf("unknown log format %q", cfg.Format)
	}

	if cfg.Dir == "" {
		logger.SetOutput(os.Stdout)
		return logger, nil
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create log directory")
	}

	logFile := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, logFileName),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	logger.SetOutput(io.MultiWriter(os.Stdout, logFile))

	return logger, nil
}
