package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

// StatsLog appends one JSON object per line to an append-only file. Writers
// across goroutines serialise on the log's mutex. An empty path disables
// the log.
type StatsLog struct {
	mu     sync.Mutex
	path   string
	logger *log.Logger
}

// NewStatsLog creates a stats log writing to path.
func NewStatsLog(path string, logger *log.Logger) *StatsLog {
	return &StatsLog{path: path, logger: logger.WithPrefix("stats")}
}

// Append marshals v and appends it as one line.
func (l *StatsLog) Append(v any) error {
	if l.path == "" {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal stats record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open stats log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append stats record: %w", err)
	}
	return nil
}
