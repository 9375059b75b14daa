package diag

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	logSuffix     = ".log"
	retentionDays = 30
)

// LogOptions configures OpenLog.
type LogOptions struct {
	Enabled bool       // If false, all logging is discarded
	LogDir  string     // Directory for log files. Default: ~/.lightheap/logs
	Prefix  string     // File name prefix. Default: "lightheap-"
	Level   slog.Level // Minimum log level. Default: LevelInfo when enabled
}

// OpenLog returns a JSON logger writing to a dated file in opts.LogDir, and
// the file to close when done. Files older than 30 days with the same prefix
// are removed. When opts.Enabled is false the logger discards everything and
// the closer is a no-op.
func OpenLog(opts LogOptions) (*slog.Logger, io.Closer, error) {
	if !opts.Enabled {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), nopCloser{}, nil
	}

	logDir := opts.LogDir
	if logDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, err
		}
		logDir = filepath.Join(home, ".lightheap", "logs")
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "lightheap-"
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, err
	}

	// Best-effort
	cleanOldLogs(logDir, prefix, time.Now())

	filename := filepath.Join(logDir, prefix+time.Now().Format("2006-01-02")+logSuffix)
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}

	level := opts.Level
	if level == 0 {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})), f, nil
}

// cleanOldLogs removes log files older than retentionDays.
func cleanOldLogs(logDir, prefix string, now time.Time) {
	cutoff := now.AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, logSuffix) {
			continue
		}

		// lightheap-2024-01-05.log
		dateStr := strings.TrimPrefix(strings.TrimSuffix(name, logSuffix), prefix)
		logDate, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}

		if logDate.Before(cutoff) {
			os.Remove(filepath.Join(logDir, name))
		}
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
