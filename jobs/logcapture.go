package jobs

import (
	"sync"
	"time"
)

// captureCapacity bounds the per-execution log buffer. Entries past the cap
// are dropped silently; the drop count is kept for the summary.
const captureCapacity = 10000

// summaryErrorSamples is how many early error messages the summary retains
const summaryErrorSamples = 10

// LogEntry is one structured log line captured during an execution
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// LogCapture buffers the structured log lines a job emits during one run so
// they can be persisted with the execution record. Safe for concurrent use.
// Capture never fails from the caller's point of view; when the buffer is
// full the entry is dropped and counted.
type LogCapture struct {
	mu       sync.Mutex
	capacity int
	entries  []LogEntry
	dropped  int
}

func NewLogCapture() *LogCapture {
	return &LogCapture{capacity: captureCapacity}
}

// NewLogCaptureWithCapacity is used by tests to exercise the drop path
// without building ten thousand entries
func NewLogCaptureWithCapacity(capacity int) *LogCapture {
	return &LogCapture{capacity: capacity}
}

// Emit appends one entry, dropping it silently if the buffer is full
func (c *LogCapture) Emit(level, message string, context map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.capacity {
		c.dropped++
		return
	}
	c.entries = append(c.entries, LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Message:   message,
		Context:   context,
	})
}

// Entries returns a copy of the captured buffer
func (c *LogCapture) Entries() []LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Dropped returns how many entries were discarded over capacity
func (c *LogCapture) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// CaptureSummary is a compact view of a run's log output
type CaptureSummary struct {
	CountsByLevel map[string]int `json:"counts_by_level"`
	FirstErrors   []string       `json:"first_errors,omitempty"`
	Dropped       int            `json:"dropped,omitempty"`
}

// Summary aggregates the buffer into per-level counts plus the first few
// error messages, for the completion log line
func (c *LogCapture) Summary() CaptureSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	summary := CaptureSummary{
		CountsByLevel: make(map[string]int),
		Dropped:       c.dropped,
	}
	for _, entry := range c.entries {
		summary.CountsByLevel[entry.Level]++
		if entry.Level == "error" && len(summary.FirstErrors) < summaryErrorSamples {
			summary.FirstErrors = append(summary.FirstErrors, entry.Message)
		}
	}
	return summary
}
