package daemon

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger creates the daemon logger. An empty logFile logs to stderr.
// The returned closer releases the log file, if any.
func NewLogger(logFile, logLevel string) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level := logrus.InfoLevel
	if logLevel != "" {
		parsed, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid log level: %w", err)
		}
		level = parsed
	}
	logger.SetLevel(level)

	if logFile == "" {
		logger.SetOutput(os.Stderr)
		return logger, nopCloser{}, nil
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}
	logger.SetOutput(file)

	return logger, file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
