// internal/platform/ui/raw_presenter.go
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"fancycaptcha/internal/core/ports"
)

// LogFormat is the raw output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text" // logfmt (default)
	LogFormatJSON LogFormat = "json"
)

// RawPresenter writes one line per event, for cron jobs and log shippers.
type RawPresenter struct {
	format LogFormat
	out    io.Writer
	mu     sync.Mutex

	// now is overridden in tests
	now func() time.Time
}

func NewRawPresenter(format LogFormat, out io.Writer) *RawPresenter {
	return &RawPresenter{
		format: format,
		out:    out,
		now:    time.Now,
	}
}

func (r *RawPresenter) log(level, message string, fields map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timestamp := r.now().UTC().Format(time.RFC3339)
	if r.format == LogFormatJSON {
		r.logJSON(timestamp, level, message, fields)
	} else {
		r.logText(timestamp, level, message, fields)
	}
}

// logText writes: timestamp LEVEL message key=value key2=value2
func (r *RawPresenter) logText(timestamp, level, message string, fields map[string]interface{}) {
	parts := []string{timestamp, fmt.Sprintf("%-5s", level), message}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, formatValue(fields[k])))
	}

	fmt.Fprintln(r.out, strings.Join(parts, " "))
}

func (r *RawPresenter) logJSON(timestamp, level, message string, fields map[string]interface{}) {
	entry := map[string]interface{}{
		"timestamp": timestamp,
		"level":     level,
		"message":   message,
	}
	if len(fields) > 0 {
		entry["data"] = fields
	}

	data, _ := json.Marshal(entry)
	fmt.Fprintln(r.out, string(data))
}

// formatValue quotes strings containing spaces.
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		if strings.ContainsAny(val, " \"=") {
			return fmt.Sprintf("%q", val)
		}
		return val
	case time.Duration:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

func (r *RawPresenter) Start(info RunInfo) {
	r.log("INFO", "run_started", map[string]interface{}{
		"fill":       info.Fill,
		"delete":     info.DeleteOld,
		"oldcaptcha": info.OldGenerator,
		"storage":    info.Storage,
		"dirs":       info.DirectoryLevels,
	})
}

func (r *RawPresenter) Notify(e ports.Event) {
	fields := map[string]interface{}{}
	if e.Stage != "" {
		fields["stage"] = string(e.Stage)
	}
	if e.Count != 0 || e.Type == ports.EventEstimate {
		fields["count"] = e.Count
	}
	if e.Path != "" {
		fields["path"] = e.Path
	}
	if e.Err != nil {
		fields["error"] = e.Err.Error()
	}

	level := "INFO"
	if _, status, ok := Message(e); ok {
		level = status.Level()
	}
	r.log(level, string(e.Type), fields)
}

func (r *RawPresenter) Error(msg string) {
	r.log("ERROR", msg, nil)
}

func (r *RawPresenter) Finish(s Summary) {
	r.log("INFO", "run_completed", map[string]interface{}{
		"estimated": s.Estimated,
		"requested": s.Requested,
		"stored":    s.Stored,
		"failed":    s.Failed,
		"deleted":   s.Deleted,
		"skipped":   s.Skipped,
		"duration":  s.Duration,
	})
}

func (r *RawPresenter) Close() error {
	return nil
}
