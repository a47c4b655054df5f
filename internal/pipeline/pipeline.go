// Package pipeline drives one synchronization run: every station of the
// feed snapshot is matched, reconciled and written in sequence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/velov-sync/internal/domain"
	"github.com/couchcryptid/velov-sync/internal/observability"
)

// StationSource provides the feed snapshot.
type StationSource interface {
	Stations(ctx context.Context) ([]domain.StationRecord, error)
}

// Matcher resolves a record to an existing item, a creation, or a skip.
type Matcher interface {
	Match(ctx context.Context, rec domain.StationRecord) (domain.MatchResult, error)
}

// Reconciler applies the desired state of a record to an item.
type Reconciler interface {
	Reconcile(item *domain.Item, rec domain.StationRecord) (domain.Result, error)
}

// KnowledgeBase reads and writes items.
type KnowledgeBase interface {
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	WriteItem(ctx context.Context, item *domain.Item, summary string) (string, error)
}

// TriageRecorder keeps the stations that need a human decision.
type TriageRecorder interface {
	Reset() error
	Record(ctx context.Context, stationID int) error
}

// ChangePublisher receives an event for every created, updated or skipped station.
type ChangePublisher interface {
	Publish(ctx context.Context, event domain.ChangeEvent) error
}

// Stages groups the collaborators of a run. Publisher is optional.
type Stages struct {
	Source     StationSource
	Matcher    Matcher
	Reconciler Reconciler
	KB         KnowledgeBase
	Triage     TriageRecorder
	Publisher  ChangePublisher
}

// Options tune a run.
type Options struct {
	Summary string // edit summary of every write
	DryRun  bool   // match and reconcile, never write
}

// Report counts what a run did.
type Report struct {
	Total     int
	Created   int
	Updated   int
	Unchanged int
	Skipped   int
	// SkippedIDs lists the stations sent to triage, in feed order.
	SkippedIDs []int
}

// Pipeline runs the sync.
type Pipeline struct {
	stages  Stages
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
	running atomic.Bool
}

// New creates a Pipeline.
func New(stages Stages, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{stages: stages, opts: opts, logger: logger, metrics: metrics}
}

// CheckReadiness returns nil while a run is processing stations.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.running.Load() {
		return errors.New("sync is not processing stations")
	}
	return nil
}

type outcome string

const (
	outcomeCreated   outcome = "created"
	outcomeUpdated   outcome = "updated"
	outcomeUnchanged outcome = "unchanged"
	outcomeSkipped   outcome = "skipped"
)

// Run processes the whole snapshot once. It stops at the first fatal error
// (unknown municipality, knowledge-base or transport failure, cancellation);
// items written before that stay written.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	defer func() {
		p.metrics.RunDuration.Set(time.Since(start).Seconds())
	}()

	var report Report
	if err := p.stages.Triage.Reset(); err != nil {
		return report, err
	}

	records, err := p.stages.Source.Stations(ctx)
	if err != nil {
		return report, fmt.Errorf("load stations: %w", err)
	}
	p.logger.Info("sync started", "stations", len(records), "dry_run", p.opts.DryRun)
	p.running.Store(true)
	defer p.running.Store(false)

	skipped := make(map[int]struct{})
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			p.logger.Info("sync interrupted", "processed", report.Total, "reason", err)
			return report, err
		}
		if _, ok := skipped[rec.ID]; ok {
			continue
		}

		out, itemID, err := p.processStation(ctx, rec)
		if err != nil {
			return report, fmt.Errorf("station %d: %w", rec.ID, err)
		}

		report.Total++
		p.metrics.StationsProcessed.WithLabelValues(string(out)).Inc()
		switch out {
		case outcomeCreated:
			report.Created++
			p.publish(ctx, domain.NewChangeEvent(rec.ID, itemID, domain.ActionCreated, ""))
		case outcomeUpdated:
			report.Updated++
			p.publish(ctx, domain.NewChangeEvent(rec.ID, itemID, domain.ActionUpdated, ""))
		case outcomeUnchanged:
			report.Unchanged++
		case outcomeSkipped:
			report.Skipped++
			report.SkippedIDs = append(report.SkippedIDs, rec.ID)
			skipped[rec.ID] = struct{}{}
			p.publish(ctx, domain.NewChangeEvent(rec.ID, "", domain.ActionSkipped, domain.ReasonAmbiguous))
		}
	}

	p.metrics.LastSuccessUnixTS.SetToCurrentTime()
	p.logger.Info("sync finished",
		"created", report.Created,
		"updated", report.Updated,
		"unchanged", report.Unchanged,
		"skipped", report.Skipped,
		"duration", time.Since(start),
	)
	return report, nil
}

// processStation handles one record and returns what happened to it along
// with the id of the item involved.
func (p *Pipeline) processStation(ctx context.Context, rec domain.StationRecord) (outcome, string, error) {
	match, err := p.stages.Matcher.Match(ctx, rec)
	if err != nil {
		return "", "", err
	}

	var item *domain.Item
	switch match.Kind {
	case domain.MatchSkip:
		p.logger.Warn("station needs triage", "station_id", rec.ID, "reason", match.Reason)
		if err := p.stages.Triage.Record(ctx, rec.ID); err != nil {
			return "", "", err
		}
		return outcomeSkipped, "", nil
	case domain.MatchCreate:
		item = domain.NewItem()
	case domain.MatchFound:
		item, err = p.stages.KB.GetItem(ctx, match.ItemID)
		if err != nil {
			return "", "", err
		}
	default:
		return "", "", fmt.Errorf("unexpected match kind %s", match.Kind)
	}

	result, err := p.stages.Reconciler.Reconcile(item, rec)
	if err != nil {
		return "", "", err
	}
	if !result.Changed {
		p.logger.Debug("station up to date", "station_id", rec.ID, "item_id", item.ID)
		return outcomeUnchanged, item.ID, nil
	}

	out := outcomeUpdated
	if item.IsNew() {
		out = outcomeCreated
	}
	p.logger.Debug("station diff", "station_id", rec.ID, "item_id", item.ID, "diff", result.Diff)

	if p.opts.DryRun {
		p.logger.Info("dry run, item not written", "station_id", rec.ID, "item_id", item.ID, "action", string(out))
		return out, item.ID, nil
	}

	id, err := p.stages.KB.WriteItem(ctx, item, p.opts.Summary)
	if err != nil {
		return "", "", err
	}
	p.logger.Info("station "+string(out), "station_id", rec.ID, "item_id", id)
	return out, id, nil
}

// publish sends a change event when a publisher is configured. Sink
// failures are logged and never stop the run.
func (p *Pipeline) publish(ctx context.Context, event domain.ChangeEvent) {
	if p.stages.Publisher == nil || p.opts.DryRun {
		return
	}
	if err := p.stages.Publisher.Publish(ctx, event); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		p.logger.Warn("publish change event failed", "station_id", event.StationID, "error", err)
	}
}
