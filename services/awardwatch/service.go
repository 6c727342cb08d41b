package awardwatch

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"awardwatch-backend/lib/scrapers/usaspending"
	"awardwatch-backend/lib/tabular"
	"awardwatch-backend/services/awardwatch/db"
	"awardwatch-backend/services/awardwatch/mailer"
	"awardwatch-backend/services/awardwatch/snapshot"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/awardwatch")

// Source produces the current transaction history for one tracked
// award. An error means the fetch failed; a zero-row Table is a
// legitimate empty result and the two are handled differently.
type Source interface {
	FetchTransactions(ctx context.Context, awardId string) (usaspending.Table, error)
}

// Notifier delivers the consolidated digest. Invoked at most once per
// run, after every snapshot has been persisted.
type Notifier interface {
	SendDigest(ctx context.Context, at time.Time, sections []mailer.Section) error
}

// Entity is one tracked award: a stable display name plus the award id
// the Source resolves.
type Entity struct {
	Name    string `json:"name"`
	AwardId string `json:"award_id"`
}

type Options struct {
	Entities []Entity
	// defaults to {"Modification Number"}
	KeyColumns []string
	// defaults to {"Amount"}
	AmountColumns []string
	// computes and logs the digest without sending it
	DryRun bool
}

type Service struct {
	source   Source
	store    snapshot.Store
	notifier Notifier
	qry      *db.Queries
	options  Options
}

func NewService(source Source, store snapshot.Store, notifier Notifier, database *sql.DB, options Options) Service {
	if len(options.KeyColumns) == 0 {
		options.KeyColumns = []string{"Modification Number"}
	}
	if len(options.AmountColumns) == 0 {
		options.AmountColumns = []string{"Amount"}
	}
	return Service{
		source:   source,
		store:    store,
		notifier: notifier,
		qry:      db.New(database),
		options:  options,
	}
}

// EntityOutcome is one entity's result within a run summary.
type EntityOutcome struct {
	Entity      string
	New         int
	Updated     int
	Initialized bool
	Skipped     bool
	Err         error
}

// RunSummary is always producible, even when every entity failed.
type RunSummary struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []EntityOutcome
	Notified   bool
	DryRun     bool
}

// Run processes every tracked entity in order, then notifies once if
// anything changed. A failure on one entity never aborts the others;
// notification failure never rolls back snapshots, which are durable
// before the send is attempted.
func (s Service) Run(ctx context.Context) RunSummary {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	summary := RunSummary{
		StartedAt: time.Now(),
		DryRun:    s.options.DryRun,
	}
	var sections []mailer.Section

	for _, entity := range s.options.Entities {
		outcome, lines := s.processEntity(ctx, entity)
		summary.Outcomes = append(summary.Outcomes, outcome)
		if len(lines) > 0 {
			sections = append(sections, mailer.Section{
				Entity: entity.Name,
				Lines:  lines,
			})
		}
	}

	if len(sections) > 0 {
		if s.options.DryRun {
			slog.Info("dry run, digest suppressed")
			for _, section := range sections {
				for _, line := range section.Lines {
					slog.Info("digest preview", "entity", section.Entity, "line", line)
				}
			}
		} else {
			err := s.notifier.SendDigest(ctx, time.Now(), sections)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to send digest")
				slog.Error("failed to send digest", "err", err)
			} else {
				summary.Notified = true
				slog.Info("sent digest", "entities", len(sections))
			}
		}
	} else {
		slog.Info("no changes detected, no digest sent")
	}

	summary.FinishedAt = time.Now()
	s.recordRun(ctx, summary)
	return summary
}

func (s Service) processEntity(ctx context.Context, entity Entity) (EntityOutcome, []string) {
	ctx, span := tracer.Start(ctx, "processEntity")
	defer span.End()
	span.SetAttributes(attribute.String("entity", entity.Name))

	outcome := EntityOutcome{Entity: entity.Name}

	table, err := s.source.FetchTransactions(ctx, entity.AwardId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		slog.Error("fetch failed, skipping entity", "entity", entity.Name, "err", err)
		outcome.Skipped = true
		outcome.Err = err
		return outcome, nil
	}

	_, oldRows, err := s.store.Load(entity.Name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot load failed")
		slog.Error("snapshot load failed, skipping entity", "entity", entity.Name, "err", err)
		outcome.Skipped = true
		outcome.Err = err
		return outcome, nil
	}

	// first run for this entity: initialize, nothing to diff against
	if len(oldRows) == 0 {
		if len(table.Rows) == 0 {
			slog.Warn("initial fetch returned 0 rows, snapshot not created", "entity", entity.Name)
			return outcome, nil
		}
		err := s.store.Save(entity.Name, table.Headers, table.Rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "snapshot init failed")
			slog.Error("failed to initialize snapshot", "entity", entity.Name, "err", err)
			outcome.Skipped = true
			outcome.Err = err
			return outcome, nil
		}
		slog.Info("initialized snapshot", "entity", entity.Name, "rows", len(table.Rows))
		outcome.Initialized = true
		return outcome, nil
	}

	// an empty fetch on a later run never clobbers the good snapshot
	if len(table.Rows) == 0 {
		slog.Warn("fetch returned 0 rows, keeping previous snapshot", "entity", entity.Name)
		return outcome, nil
	}

	result := tabular.Diff(oldRows, table.Rows, s.options.KeyColumns, s.options.AmountColumns)
	if result.Empty() {
		slog.Info("no changes", "entity", entity.Name)
		return outcome, nil
	}

	lines := FormatChangeLines(table.Headers, result, s.options.KeyColumns[0], s.options.AmountColumns)

	err = s.store.Save(entity.Name, table.Headers, table.Rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot save failed")
		slog.Error("failed to persist snapshot, withholding digest lines", "entity", entity.Name, "err", err)
		outcome.Skipped = true
		outcome.Err = err
		return outcome, nil
	}

	outcome.New = len(result.NewEntries)
	outcome.Updated = len(result.Updated)
	slog.Info("changes detected",
		"entity", entity.Name,
		"new", outcome.New,
		"updated", outcome.Updated,
	)
	return outcome, lines
}

// recordRun writes the summary into the ledger. Ledger trouble is
// logged, not fatal; the run's real work is already durable.
func (s Service) recordRun(ctx context.Context, summary RunSummary) {
	runId, err := s.qry.CreateRun(ctx, db.CreateRunParams{
		Startedat:  summary.StartedAt.Unix(),
		Finishedat: summary.FinishedAt.Unix(),
		Notified:   summary.Notified,
		Dryrun:     summary.DryRun,
	})
	if err != nil {
		slog.Error("failed to record run", "err", err)
		return
	}
	for _, outcome := range summary.Outcomes {
		errText := ""
		if outcome.Err != nil {
			errText = outcome.Err.Error()
		}
		err := s.qry.CreateRunEntity(ctx, db.CreateRunEntityParams{
			Runid:        runId,
			Entity:       outcome.Entity,
			Newcount:     int64(outcome.New),
			Updatedcount: int64(outcome.Updated),
			Initialized:  outcome.Initialized,
			Skipped:      outcome.Skipped,
			Error:        errText,
		})
		if err != nil {
			slog.Error("failed to record run entity", "entity", outcome.Entity, "err", err)
		}
	}
}
