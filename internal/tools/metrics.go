package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"grok-cli/internal/logging"
)

// MetricRecord is one tool-invocation measurement (spec §4.2 "Metrics").
type MetricRecord struct {
	Tool         string         `json:"tool"`
	StartTime    time.Time      `json:"startTime"`
	EndTime      time.Time      `json:"endTime"`
	LatencyMs    int64          `json:"latencyMs"`
	Success      bool           `json:"success"`
	Error        string         `json:"error,omitempty"`
	RetryCount   int            `json:"retryCount"`
	FallbackUsed bool           `json:"fallbackUsed"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Aggregate summarizes metrics across all recorded calls.
type Aggregate struct {
	TotalOperations  int
	SuccessCount     int
	AverageLatencyMs float64
	PerTool          map[string]*ToolAggregate
	RetryTotal       int
	FallbackTotal    int
}

// ToolAggregate summarizes metrics for a single tool.
type ToolAggregate struct {
	Count            int
	SuccessCount     int
	AverageLatencyMs float64
}

// Metrics collects per-call records, streams them to a JSONL log file, and
// answers in-process aggregate queries. One writer; safe for concurrent
// readers/writers via mutex (spec §5 "Metrics logs are append-only, one writer").
type Metrics struct {
	mu      sync.Mutex
	records []MetricRecord
	logPath string
	file    *os.File
}

// NewMetrics creates a metrics collector writing to a JSONL file under the
// OS temp directory, mirroring the teacher's per-run log file convention.
func NewMetrics() *Metrics {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("grok-agent-metrics-%d.jsonl", time.Now().UnixNano()))
	m := &Metrics{logPath: path}
	if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
		m.file = f
	} else {
		logging.Get(logging.CategoryTools).Warn("metrics: could not open log file %s: %v", path, err)
	}
	return m
}

// LogPath returns the JSONL file this collector streams to.
func (m *Metrics) LogPath() string { return m.logPath }

// Record appends one measurement and streams it to disk.
func (m *Metrics) Record(rec MetricRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, rec)
	if m.file != nil {
		if data, err := json.Marshal(rec); err == nil {
			fmt.Fprintln(m.file, string(data))
		}
	}
}

// Aggregate computes overall and per-tool statistics over all records so far.
func (m *Metrics) Aggregate() Aggregate {
	m.mu.Lock()
	defer m.mu.Unlock()

	agg := Aggregate{PerTool: make(map[string]*ToolAggregate)}
	var totalLatency int64

	for _, rec := range m.records {
		agg.TotalOperations++
		totalLatency += rec.LatencyMs
		if rec.Success {
			agg.SuccessCount++
		}
		agg.RetryTotal += rec.RetryCount
		if rec.FallbackUsed {
			agg.FallbackTotal++
		}

		ta, ok := agg.PerTool[rec.Tool]
		if !ok {
			ta = &ToolAggregate{}
			agg.PerTool[rec.Tool] = ta
		}
		ta.Count++
		if rec.Success {
			ta.SuccessCount++
		}
		ta.AverageLatencyMs = ((ta.AverageLatencyMs * float64(ta.Count-1)) + float64(rec.LatencyMs)) / float64(ta.Count)
	}

	if agg.TotalOperations > 0 {
		agg.AverageLatencyMs = float64(totalLatency) / float64(agg.TotalOperations)
	}
	return agg
}

// Close flushes and closes the underlying log file.
func (m *Metrics) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file != nil {
		return m.file.Close()
	}
	return nil
}
