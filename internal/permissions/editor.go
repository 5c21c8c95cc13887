package permissions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mobil3801/dfs-manager-portal/internal/catalog"
)

// BulkMode selects what a group-wide bulk edit does to each page cell.
type BulkMode string

const (
	BulkGrantAll  BulkMode = "grant_all"
	BulkRevokeAll BulkMode = "revoke_all"
	BulkViewOnly  BulkMode = "view_only"
)

// ParseBulkMode validates a raw bulk mode name.
func ParseBulkMode(raw string) (BulkMode, bool) {
	switch BulkMode(raw) {
	case BulkGrantAll, BulkRevokeAll, BulkViewOnly:
		return BulkMode(raw), true
	default:
		return "", false
	}
}

// Draft is the working copy of one user's matrix during an edit session.
// Mutations act on the draft only; nothing persists until Save.
type Draft struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
	Matrix Matrix    `json:"matrix"`
	// Dirty is set by any mutation and cleared by Save.
	Dirty bool `json:"dirty"`
	// Custom distinguishes an edited matrix from a pristine role template.
	// ApplyRoleTemplate clears it, every other mutation sets it.
	Custom bool `json:"custom"`
}

// ToggleCell sets exactly one action flag.
func (d *Draft) ToggleCell(pageKey string, action catalog.Action, value bool) error {
	if _, ok := catalog.PageByKey(pageKey); !ok {
		return fmt.Errorf("unknown page key %q", pageKey)
	}
	if _, ok := catalog.ParseAction(string(action)); !ok {
		return fmt.Errorf("unknown action %q", action)
	}
	cell := d.Matrix.Cell(pageKey)
	cell.Set(action, value)
	d.Matrix[pageKey] = cell
	d.Dirty = true
	d.Custom = true
	return nil
}

// ApplyRoleTemplate replaces the whole draft with the role default.
func (d *Draft) ApplyRoleTemplate(role Role) {
	d.Matrix = DefaultMatrix(role)
	d.Dirty = true
	d.Custom = false
}

// BulkApplyToGroup rewrites every page cell inside one catalog group. Pages
// outside the group are untouched.
func (d *Draft) BulkApplyToGroup(group string, mode BulkMode) error {
	pages := catalog.PagesInGroup(group)
	if len(pages) == 0 {
		return fmt.Errorf("unknown page group %q", group)
	}
	var cell Cell
	switch mode {
	case BulkGrantAll:
		cell = FullCell()
	case BulkRevokeAll:
		cell = Cell{}
	case BulkViewOnly:
		cell = ViewExportCell()
	default:
		return fmt.Errorf("unknown bulk mode %q", mode)
	}
	for _, p := range pages {
		d.Matrix[p.Key] = cell
	}
	d.Dirty = true
	d.Custom = true
	return nil
}

// AuditEnqueuer records permission saves on a background queue.
type AuditEnqueuer interface {
	EnqueuePermissionAudit(ctx context.Context, actorID, targetID uuid.UUID, pages int) error
}

// Editor is the mutation surface for one user's permissions. Reaching it at
// all is gated by the access guard (administrator role on the user
// management page); the editor itself only validates the edits.
type Editor struct {
	store    Store
	resolver *Resolver
	drafts   *DraftStore
	audit    AuditEnqueuer
	logger   *slog.Logger
}

// NewEditor constructs an Editor. audit may be nil.
func NewEditor(store Store, resolver *Resolver, drafts *DraftStore, audit AuditEnqueuer, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{store: store, resolver: resolver, drafts: drafts, audit: audit, logger: logger}
}

// Open starts (or restarts) an edit session from the target's effective
// matrix, discarding any previous draft.
func (e *Editor) Open(ctx context.Context, target Principal) (*Draft, error) {
	res, err := e.resolver.Effective(ctx, target)
	if err != nil {
		return nil, err
	}
	draft := &Draft{
		UserID: target.ID,
		Role:   target.Role,
		Matrix: res.Matrix.Clone(),
		Custom: res.Source == SourceCustom,
	}
	if err := e.drafts.Put(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Toggle sets one flag on the user's draft.
func (e *Editor) Toggle(ctx context.Context, userID uuid.UUID, pageKey string, action catalog.Action, value bool) (*Draft, error) {
	return e.mutate(ctx, userID, func(d *Draft) error {
		return d.ToggleCell(pageKey, action, value)
	})
}

// ApplyTemplate swaps the draft for a role default.
func (e *Editor) ApplyTemplate(ctx context.Context, userID uuid.UUID, role Role) (*Draft, error) {
	return e.mutate(ctx, userID, func(d *Draft) error {
		d.ApplyRoleTemplate(role)
		return nil
	})
}

// BulkApply rewrites all pages of one group on the draft.
func (e *Editor) BulkApply(ctx context.Context, userID uuid.UUID, group string, mode BulkMode) (*Draft, error) {
	return e.mutate(ctx, userID, func(d *Draft) error {
		return d.BulkApplyToGroup(group, mode)
	})
}

func (e *Editor) mutate(ctx context.Context, userID uuid.UUID, fn func(*Draft) error) (*Draft, error) {
	draft, err := e.drafts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(draft); err != nil {
		return nil, err
	}
	if err := e.drafts.Put(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Save persists the entire draft matrix as the user's new override. This is
// a blind full-document replace: two administrators saving the same user race
// and the last completed write wins. A write failure is returned to the
// caller; an unconfirmed save is never treated as saved.
func (e *Editor) Save(ctx context.Context, actorID, userID uuid.UUID) (*Draft, error) {
	draft, err := e.drafts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	override := Override(draft.Matrix.Clone())
	if err := e.store.WriteOverride(ctx, userID, override); err != nil {
		return nil, err
	}
	e.resolver.Invalidate(ctx, userID)

	draft.Dirty = false
	if err := e.drafts.Put(ctx, draft); err != nil {
		e.logger.Warn("draft update after save failed", slog.Any("error", err))
	}
	if e.audit != nil {
		if err := e.audit.EnqueuePermissionAudit(ctx, actorID, userID, len(override)); err != nil {
			e.logger.Warn("audit enqueue failed", slog.Any("error", err))
		}
	}
	return draft, nil
}

// Reset discards the draft and reloads the effective matrix from the store.
func (e *Editor) Reset(ctx context.Context, target Principal) (*Draft, error) {
	e.drafts.Delete(ctx, target.ID)
	return e.Open(ctx, target)
}
