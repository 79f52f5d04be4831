// Package logger builds the zerolog loggers used by the dsmodel tools.
package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

const permission = 0o664

// LogBuild collects the output and level of a logger before Make.
type LogBuild struct {
	writer io.Writer
	path   string
	level  string
}

// LogData is a built logger plus the file it writes to, if any.
type LogData struct {
	Logger  zerolog.Logger
	LogFile *os.File
}

// New starts a builder that writes to stderr at info level.
func New() *LogBuild {
	return &LogBuild{writer: os.Stderr, level: "info"}
}

// FromPath appends to the file at path instead of the writer.
func (build *LogBuild) FromPath(path string) *LogBuild {
	build.path = path
	return build
}

func (build *LogBuild) FromWriter(w io.Writer) *LogBuild {
	build.writer = w
	return build
}

// Level sets the minimum level by name (trace, debug, info, warn, error,
// disabled). An empty name keeps the current level.
func (build *LogBuild) Level(level string) *LogBuild {
	if level != "" {
		build.level = level
	}
	return build
}

// Make opens the log file if one was requested and returns the logger.
func (build *LogBuild) Make() (*LogData, error) {
	lvl, err := zerolog.ParseLevel(build.level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", build.level, err)
	}

	logData := new(LogData)
	w := build.writer
	if build.path != "" {
		logData.LogFile, err = os.OpenFile(build.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = zerolog.SyncWriter(logData.LogFile)
	}
	logData.Logger = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return logData, nil
}

// Close closes the log file, if any.
func (d *LogData) Close() error {
	if d.LogFile == nil {
		return nil
	}
	return d.LogFile.Close()
}
