package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/mobil3801/dfs-manager-portal/internal/jobs"
	"github.com/mobil3801/dfs-manager-portal/internal/shared"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// PermissionAuditJob persists permission-save events on the audit trail.
// Saves are enqueued rather than written inline so a slow audit table never
// blocks the editor.
type PermissionAuditJob struct {
	Audit   *shared.AuditLogger
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewPermissionAuditJob wires dependencies for the audit handler.
func NewPermissionAuditJob(audit *shared.AuditLogger, logger *slog.Logger, metrics *jobmetrics.Metrics) *PermissionAuditJob {
	return &PermissionAuditJob{Audit: audit, Logger: logger, Metrics: metrics}
}

// Handle processes permission audit tasks.
func (j *PermissionAuditJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Audit == nil {
		return errors.New("permission audit: handler not configured")
	}
	var payload PermissionAuditPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskPermissionAudit)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(
		slog.String("actor_id", payload.ActorID.String()),
		slog.String("target_id", payload.TargetID.String()),
	)

	resultErr = j.Audit.Record(ctx, shared.AuditLog{
		ActorID:  payload.ActorID,
		Action:   "permissions.save",
		Entity:   "user_profile",
		EntityID: payload.TargetID.String(),
		Meta:     map[string]any{"pages": payload.Pages},
		At:       payload.SavedAt,
	})
	if resultErr != nil {
		logger.Error("record permission audit", slog.Any("error", resultErr))
		return resultErr
	}
	logger.Info("permission save recorded", slog.Int("pages", payload.Pages))
	return resultErr
}

func (j *PermissionAuditJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskPermissionAudit))
	}
	return slog.Default().With(slog.String("job", TaskPermissionAudit))
}

func (j *PermissionAuditJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
