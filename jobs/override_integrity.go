package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/mobil3801/dfs-manager-portal/internal/catalog"
	jobmetrics "github.com/mobil3801/dfs-manager-portal/internal/jobs"
	"github.com/mobil3801/dfs-manager-portal/internal/permissions"
)

// OverrideIntegrityJob walks every stored permission override looking for
// documents that no longer parse and page keys the catalog no longer knows.
// Findings are reported, never auto-repaired: the resolver already ignores
// them at read time and a cleanup is an administrator's call.
type OverrideIntegrityJob struct {
	Store   permissions.Store
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewOverrideIntegrityJob wires dependencies for the integrity scan.
func NewOverrideIntegrityJob(store permissions.Store, logger *slog.Logger, metrics *jobmetrics.Metrics) *OverrideIntegrityJob {
	return &OverrideIntegrityJob{Store: store, Logger: logger, Metrics: metrics}
}

// IntegrityReport summarises one scan run.
type IntegrityReport struct {
	Scanned    int
	WithCustom int
	Malformed  int
	StalePages int
}

// Handle executes the integrity scan.
func (j *OverrideIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("override integrity: handler not configured")
	}
	var payload OverrideIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskOverrideIntegrity)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	start := time.Now()
	logger := j.logger()
	logger.Info("starting override integrity scan", slog.Bool("active_only", payload.ActiveOnly))

	report, err := j.Scan(ctx, payload.ActiveOnly)
	if err != nil {
		resultErr = err
		logger.Error("scan failed", slog.Any("error", err))
		return resultErr
	}

	j.metrics().AddIntegrityFindings("malformed_document", report.Malformed)
	j.metrics().AddIntegrityFindings("stale_page", report.StalePages)

	logger.Info("completed override integrity scan",
		slog.Int("scanned", report.Scanned),
		slog.Int("with_custom", report.WithCustom),
		slog.Int("malformed", report.Malformed),
		slog.Int("stale_pages", report.StalePages),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

// Scan inspects every stored override and returns the findings.
func (j *OverrideIntegrityJob) Scan(ctx context.Context, activeOnly bool) (IntegrityReport, error) {
	if j.Store == nil {
		return IntegrityReport{}, errors.New("override integrity: store not configured")
	}
	profiles, err := j.Store.ListProfiles(ctx, permissions.ListFilter{ActiveOnly: activeOnly})
	if err != nil {
		return IntegrityReport{}, err
	}

	var report IntegrityReport
	logger := j.logger()
	for _, rec := range profiles {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++

		raw, err := j.Store.ReadOverride(ctx, rec.ID)
		if err != nil {
			return report, err
		}
		if len(raw) == 0 {
			continue
		}

		override, err := permissions.ParseOverride(raw)
		if err != nil {
			report.Malformed++
			logger.Warn("malformed override document",
				slog.String("user_id", rec.ID.String()),
				slog.Any("error", err),
			)
			continue
		}
		if len(override) == 0 {
			continue
		}
		report.WithCustom++

		for key := range override {
			if _, ok := catalog.PageByKey(key); !ok {
				report.StalePages++
				logger.Warn("stale page key in override",
					slog.String("user_id", rec.ID.String()),
					slog.String("page_key", key),
				)
			}
		}
	}
	return report, nil
}

func (j *OverrideIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskOverrideIntegrity))
	}
	return slog.Default().With(slog.String("job", TaskOverrideIntegrity))
}

func (j *OverrideIntegrityJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
