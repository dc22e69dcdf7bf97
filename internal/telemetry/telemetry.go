// Package telemetry collects diagnostic fields during a run and uploads them
// once, through the lacework CLI, when the run ends.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReportedEnv is exported to later steps once telemetry has been uploaded
const ReportedEnv = "LACEWORK_WROTE_TELEMETRY"

const uploadName = "code-security-action"

// Uploader runs a CLI subcommand
type Uploader interface {
	Run(ctx context.Context, args ...string) error
}

// Collector accumulates telemetry fields for one run. It is safe for
// concurrent use since key downloads record into it from several goroutines.
type Collector struct {
	mu     sync.Mutex
	fields map[string]string
	start  time.Time
	now    func() time.Time
}

// NewCollector creates a collector with a fresh run id
func NewCollector() *Collector {
	c := &Collector{
		fields: make(map[string]string),
		now:    time.Now,
	}
	c.fields["run-id"] = uuid.NewString()
	return c
}

// SetStart records when the action started, usually from LACEWORK_START_TIME.
// Unparsable values are ignored.
func (c *Collector) SetStart(value string) {
	t, ok := parseStart(value)
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = t
}

// startLayouts are the formats `date` commonly produces in workflow steps
var startLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05Z07:00", time.UnixDate}

func parseStart(value string) (time.Time, bool) {
	for _, layout := range startLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.UnixMilli(ms), true
	}
	return time.Time{}, false
}

// AddField sets a field, replacing any previous value
func (c *Collector) AddField(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fields[name] = value
}

// AddError records err under "error" and under "error.<name>"
func (c *Collector) AddError(name string, err error) {
	msg := "Unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fields["error"] = msg
	c.fields["error."+name] = msg
}

// AddDuration records the milliseconds elapsed since start
func (c *Collector) AddDuration(name string, start time.Time) {
	c.AddField("duration."+name, strconv.FormatInt(c.now().Sub(start).Milliseconds(), 10))
}

// Increment adds one to a counter field
func (c *Collector) Increment(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := strconv.Atoi(c.fields[name])
	c.fields[name] = strconv.Itoa(n + 1)
}

// Fields returns a copy of the collected fields
func (c *Collector) Fields() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.fields))
	for k, v := range c.fields {
		out[k] = v
	}
	if !c.start.IsZero() {
		out["duration.total"] = strconv.FormatInt(c.now().Sub(c.start).Milliseconds(), 10)
	}
	return out
}

// Report uploads the fields with "telemetry upload"
func (c *Collector) Report(ctx context.Context, cli Uploader) error {
	data, err := json.Marshal(c.Fields())
	if err != nil {
		return err
	}

	f, err := os.CreateTemp("", "lacework-telemetry-*.json")
	if err != nil {
		return fmt.Errorf("failed to create telemetry file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write telemetry file: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	return cli.Run(ctx, "telemetry", "upload", "--name", uploadName, "--data", f.Name())
}

// Flush reports the fields and calls onReported if the upload succeeded.
// It is meant to be deferred right after the collector is created so every
// exit path reports exactly once. Cancellation of ctx is ignored, so the
// upload still runs after an interrupt.
func (c *Collector) Flush(ctx context.Context, cli Uploader, log *zap.SugaredLogger, onReported func()) {
	if cli == nil {
		return
	}
	if err := c.Report(context.WithoutCancel(ctx), cli); err != nil {
		log.Warnw("Failed to report telemetry", "error", err)
		return
	}
	if onReported != nil {
		onReported()
	}
}
