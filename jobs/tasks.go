package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPermissionAudit records a permission save on the audit trail.
	TaskPermissionAudit = "perm:audit"
	// TaskOverrideIntegrity scans stored overrides for stale or malformed data.
	TaskOverrideIntegrity = "perm:integrity"
)

// PermissionAuditPayload describes one saved permission change.
type PermissionAuditPayload struct {
	ActorID  uuid.UUID `json:"actor_id"`
	TargetID uuid.UUID `json:"target_id"`
	Pages    int       `json:"pages"`
	SavedAt  time.Time `json:"saved_at"`
}

// NewPermissionAuditTask constructs an Asynq task for an audit record.
func NewPermissionAuditTask(payload PermissionAuditPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPermissionAudit, data), nil
}

// OverrideIntegrityPayload tunes the override scan.
type OverrideIntegrityPayload struct {
	// ActiveOnly restricts the scan to enabled accounts.
	ActiveOnly bool `json:"active_only"`
}

// NewOverrideIntegrityTask constructs an Asynq task for the integrity scan.
func NewOverrideIntegrityTask(payload OverrideIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverrideIntegrity, data), nil
}
