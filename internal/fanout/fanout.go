// Package fanout sends one logical command to every capture agent at once
// and waits for all of them, whatever their outcome.
package fanout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
	lop "github.com/samber/lo/parallel"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/models"
)

// Outcome is the result of the command on one agent.
type Outcome struct {
	AgentID   string        `json:"agent_id"`
	ChannelID string        `json:"channel_id"`
	URL       string        `json:"url"`
	Err       error         `json:"-"`
	Error     string        `json:"error,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
}

func (o Outcome) OK() bool { return o.Err == nil }

// Report collects every outcome of one fan-out, in registry order.
type Report struct {
	Operation string    `json:"operation"`
	Outcomes  []Outcome `json:"outcomes"`
}

func (r Report) Total() int { return len(r.Outcomes) }

func (r Report) Failures() []Outcome {
	return lo.Filter(r.Outcomes, func(o Outcome, _ int) bool { return !o.OK() })
}

func (r Report) Succeeded() int { return r.Total() - len(r.Failures()) }

// Results flattens the outcomes for journaling.
func (r Report) Results() []models.AgentResult {
	return lo.Map(r.Outcomes, func(o Outcome, _ int) models.AgentResult {
		return models.AgentResult{AgentID: o.AgentID, ChannelID: o.ChannelID, OK: o.OK(), Error: o.Error}
	})
}

// Err is nil when every agent succeeded, otherwise a *PartialError.
func (r Report) Err() error {
	failures := r.Failures()
	if len(failures) == 0 {
		return nil
	}
	return &PartialError{
		Operation: r.Operation,
		Failed:    len(failures),
		Total:     r.Total(),
		Errs: lo.Map(failures, func(o Outcome, _ int) error {
			return fmt.Errorf("agent %s (%s): %w", o.AgentID, o.ChannelID, o.Err)
		}),
	}
}

// PartialError aggregates the agents that failed one fan-out.
type PartialError struct {
	Operation string
	Failed    int
	Total     int
	Errs      []error
}

// Error is the operator-facing message; per-agent detail is in Errs.
func (e *PartialError) Error() string {
	return fmt.Sprintf("%s: %d of %d capture agents failed", e.Operation, e.Failed, e.Total)
}

func (e *PartialError) Unwrap() []error {
	return e.Errs
}

// Run calls send for every agent concurrently and returns once all calls
// have finished. A failing agent never cancels its siblings, and cancelling
// ctx does not abort calls already dispatched; only the transport timeout
// bounds them.
func Run(ctx context.Context, logger *slog.Logger, operation string, agents []models.CaptureAgent, send func(context.Context, models.CaptureAgent) error) Report {
	if logger == nil {
		logger = slog.Default()
	}
	ctx = context.WithoutCancel(ctx)

	outcomes := lop.Map(agents, func(agent models.CaptureAgent, _ int) Outcome {
		start := time.Now()
		err := send(ctx, agent)
		outcome := Outcome{
			AgentID:   agent.ID,
			ChannelID: agent.ChannelID,
			URL:       agent.URL,
			Err:       err,
			Elapsed:   time.Since(start),
		}
		if err != nil {
			outcome.Error = err.Error()
			logger.Warn("capture agent command failed",
				"operation", operation,
				"agent_id", agent.ID,
				"channel_id", agent.ChannelID,
				"error", err,
			)
		}
		return outcome
	})

	return Report{Operation: operation, Outcomes: outcomes}
}
