package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leadforge/leadforge/internal/channel"
	"github.com/leadforge/leadforge/internal/config"
	"github.com/leadforge/leadforge/internal/database"
	"github.com/leadforge/leadforge/internal/engagement"
	"github.com/leadforge/leadforge/internal/template"
)

// BatchResult summarizes one ProcessDue invocation.
type BatchResult struct {
	Due     int `json:"due"`
	Claimed int `json:"claimed"`
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Processor drains due step executions: claim, evaluate the step
// condition against the engagement projection, render, dispatch, and
// record the terminal outcome. Every claimed execution transitions exactly
// once; failures are isolated per execution.
type Processor struct {
	executions database.ExecutionDAO
	prospects  database.ProspectDAO
	templates  database.TemplateDAO
	tracker    *engagement.Tracker
	sender     channel.Sender

	cfg      config.ProcessorConfig
	dispatch config.DispatchConfig
	logger   *slog.Logger
	now      func() time.Time
}

// NewProcessor creates a Processor.
func NewProcessor(
	executions database.ExecutionDAO,
	prospects database.ProspectDAO,
	templates database.TemplateDAO,
	tracker *engagement.Tracker,
	sender channel.Sender,
	cfg config.ProcessorConfig,
	dispatch config.DispatchConfig,
	logger *slog.Logger,
) *Processor {
	return &Processor{
		executions: executions,
		prospects:  prospects,
		templates:  templates,
		tracker:    tracker,
		sender:     sender,
		cfg:        cfg,
		dispatch:   dispatch,
		logger:     logger,
		now:        time.Now,
	}
}

// ProcessDue claims and processes up to BatchSize due executions, fanned
// out to at most Workers goroutines. The per-execution claim keeps
// overlapping invocations from double-sending. Only listing failures are
// returned as errors; individual execution outcomes land in the result.
func (p *Processor) ProcessDue(ctx context.Context) (*BatchResult, error) {
	due, err := p.executions.ListDue(ctx, p.now(), p.cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Due: len(due)}
	if len(due) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	workers := p.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for _, exec := range due {
		exec := exec
		g.Go(func() error {
			outcome := p.processOne(ctx, exec)
			mu.Lock()
			result.Claimed += outcome.claimed
			result.Sent += outcome.sent
			result.Skipped += outcome.skipped
			result.Failed += outcome.failed
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	p.logger.Info("batch processed",
		"due", result.Due, "claimed", result.Claimed,
		"sent", result.Sent, "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}

type outcome struct {
	claimed, sent, skipped, failed int
}

// processOne drives one execution from claim to a terminal status. Any
// error past the claim transitions the row so it never blocks the queue.
func (p *Processor) processOne(ctx context.Context, exec *database.StepExecution) outcome {
	log := p.logger.With("execution_id", exec.ID, "prospect_id", exec.ProspectID, "step", exec.StepOrder)

	claimed, err := p.executions.Claim(ctx, exec.ID)
	if err != nil {
		log.Error("claim failed", "error", err)
		return outcome{}
	}
	if !claimed {
		log.Debug("execution claimed elsewhere")
		return outcome{}
	}
	o := outcome{claimed: 1}

	status, err := p.tracker.StatusFor(ctx, exec.ProspectID)
	if err != nil {
		// fail safe: when the condition cannot be evaluated, skipping is
		// recoverable, a wrong send is not
		return p.skip(ctx, log, exec, "condition evaluation failed: "+err.Error(), o)
	}

	send, reason, err := EvaluateCondition(exec.ConditionType, status)
	if err != nil {
		return p.skip(ctx, log, exec, "condition evaluation failed: "+err.Error(), o)
	}
	if !send {
		return p.skip(ctx, log, exec, reason, o)
	}

	prospect, err := p.prospects.GetByID(ctx, exec.ProspectID)
	if err != nil {
		return p.fail(ctx, log, exec, "prospect lookup failed: "+err.Error(), o)
	}

	tpl, err := p.templates.GetByKey(ctx, prospect.UserID, exec.TemplateKey)
	if err != nil {
		return p.fail(ctx, log, exec, "template lookup failed: "+err.Error(), o)
	}

	channelName := exec.Channel
	if channelName == "" {
		channelName = tpl.Channel
	}
	if channelName == "" {
		channelName = p.dispatch.DefaultChannel
	}

	recipient, err := channel.ResolveContact(prospect, channelName)
	if err != nil {
		return p.fail(ctx, log, exec, err.Error(), o)
	}

	body := template.Render(tpl.Body, template.VarsForProspect(prospect, "", "", ""))

	sendCtx := ctx
	if p.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, p.cfg.SendTimeout)
		defer cancel()
	}

	receipt, err := p.sender.Send(sendCtx, channel.Message{
		ExecutionID: exec.ID,
		ProspectID:  exec.ProspectID,
		Channel:     channelName,
		Recipient:   recipient,
		Body:        body,
	})
	if err != nil {
		return p.fail(ctx, log, exec, "send failed: "+err.Error(), o)
	}

	if err := p.executions.MarkSent(ctx, exec.ID, body, receipt.SentAt); err != nil {
		log.Error("sent but not recorded", "error", err)
		o.failed++
		return o
	}

	log.Debug("step sent", "channel", channelName)
	o.sent++
	return o
}

func (p *Processor) skip(ctx context.Context, log *slog.Logger, exec *database.StepExecution, reason string, o outcome) outcome {
	if err := p.executions.MarkSkipped(ctx, exec.ID, reason); err != nil {
		log.Error("skip transition failed", "error", err)
		o.failed++
		return o
	}
	log.Debug("step skipped", "reason", reason)
	o.skipped++
	return o
}

func (p *Processor) fail(ctx context.Context, log *slog.Logger, exec *database.StepExecution, msg string, o outcome) outcome {
	if err := p.executions.MarkFailed(ctx, exec.ID, msg); err != nil {
		log.Error("fail transition failed", "error", err)
	}
	log.Warn("step failed", "error", msg)
	o.failed++
	return o
}
