package permissions

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Source tags where an effective matrix came from.
type Source string

const (
	// SourceTemplate means the matrix is the unmodified role default.
	SourceTemplate Source = "template"
	// SourceCustom means a stored override changed at least one page.
	SourceCustom Source = "custom"
	// SourceFailClosed means no profile was found and every cell is false.
	SourceFailClosed Source = "fail_closed"
)

// Resolution is the outcome of resolving a principal's effective matrix.
type Resolution struct {
	Matrix Matrix `json:"matrix"`
	Source Source `json:"source"`
	// Degraded is set when the store could not be reached and the matrix is
	// the role-template fallback. Callers surface this as a non-blocking
	// warning; it never widens access beyond the template.
	Degraded bool `json:"degraded"`
}

// MatrixCache keeps resolved matrices in Redis so rendering a page full of
// gated buttons does not hit the profile store once per button.
type MatrixCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewMatrixCache constructs a cache. A nil client disables caching.
func NewMatrixCache(client *redis.Client, ttl time.Duration) *MatrixCache {
	return &MatrixCache{client: client, ttl: ttl}
}

// The role level is part of the key so a role change misses the cache
// immediately instead of serving the old role's matrix until the TTL runs
// out.
func (c *MatrixCache) key(userID uuid.UUID, role Role) string {
	return "perm:effective:" + userID.String() + ":" + strconv.Itoa(role.Level())
}

// Get returns a cached resolution if present.
func (c *MatrixCache) Get(ctx context.Context, userID uuid.UUID, role Role) (Resolution, bool) {
	if c == nil || c.client == nil {
		return Resolution{}, false
	}
	data, err := c.client.Get(ctx, c.key(userID, role)).Bytes()
	if err != nil {
		return Resolution{}, false
	}
	var res Resolution
	if err := json.Unmarshal(data, &res); err != nil {
		return Resolution{}, false
	}
	return res, true
}

// Put stores a resolution. Cache writes are best-effort.
func (c *MatrixCache) Put(ctx context.Context, userID uuid.UUID, role Role, res Resolution) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.key(userID, role), data, c.ttl).Err()
}

// Invalidate drops the cached matrix for every role level, used after every
// save.
func (c *MatrixCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if c == nil || c.client == nil {
		return
	}
	for _, role := range []Role{RoleUnknown, RoleEmployee, RoleManagement, RoleAdministrator} {
		_ = c.client.Del(ctx, c.key(userID, role)).Err()
	}
}

// Resolver merges role templates with stored overrides into the effective
// permission matrix. Store and parse failures are absorbed here; they never
// leak into the guard's decision contract.
type Resolver struct {
	store  Store
	cache  *MatrixCache
	logger *slog.Logger
	group  singleflight.Group
}

// NewResolver constructs a Resolver. Cache may be nil.
func NewResolver(store Store, cache *MatrixCache, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, cache: cache, logger: logger}
}

// Effective resolves the principal's effective matrix.
//
// The merge starts from the role template and replaces template cells
// wholesale for every page key the stored override carries. A missing,
// empty, or malformed override leaves the template untouched. An unknown
// profile resolves to an all-false matrix. Only context cancellation is
// returned as an error: a superseded in-flight resolution is discarded and
// the caller treats it as "still loading", never as allow or deny.
func (r *Resolver) Effective(ctx context.Context, principal Principal) (Resolution, error) {
	if cached, ok := r.cache.Get(ctx, principal.ID, principal.Role); ok {
		return cached, nil
	}

	// The flight key carries the role level too: a resolution started before
	// a role change must not be handed to a principal resolved after it.
	flightKey := principal.ID.String() + ":" + strconv.Itoa(principal.Role.Level())
	ch := r.group.DoChan(flightKey, func() (any, error) {
		// Concurrent guard evaluations for the same principal share one
		// store read. Resolution itself never fails.
		res := r.resolve(context.WithoutCancel(ctx), principal)
		return res, nil
	})

	select {
	case <-ctx.Done():
		return Resolution{}, ctx.Err()
	case out := <-ch:
		res := out.Val.(Resolution)
		if !res.Degraded {
			r.cache.Put(ctx, principal.ID, principal.Role, res)
		}
		return res, nil
	}
}

func (r *Resolver) resolve(ctx context.Context, principal Principal) Resolution {
	template := DefaultMatrix(principal.Role)

	raw, err := r.store.ReadOverride(ctx, principal.ID)
	switch {
	case err == nil:
	case errors.Is(err, ErrProfileNotFound):
		// Absence of a profile must not escalate to template privilege.
		return Resolution{Matrix: make(Matrix).Normalize(), Source: SourceFailClosed}
	default:
		r.logger.Warn("permission store unavailable, using role template",
			slog.String("user_id", principal.ID.String()),
			slog.Any("error", err))
		return Resolution{Matrix: template, Source: SourceTemplate, Degraded: true}
	}

	override, err := ParseOverride(raw)
	if err != nil {
		r.logger.Warn("malformed permission override ignored",
			slog.String("user_id", principal.ID.String()),
			slog.Any("error", err))
		return Resolution{Matrix: template, Source: SourceTemplate}
	}

	source := SourceTemplate
	for key, cell := range override {
		if _, known := template[key]; !known {
			// Stale page key from an older catalog; the integrity scan
			// reports these.
			continue
		}
		template[key] = cell
		source = SourceCustom
	}
	return Resolution{Matrix: template, Source: source}
}

// Invalidate drops any cached resolution for the user.
func (r *Resolver) Invalidate(ctx context.Context, userID uuid.UUID) {
	r.cache.Invalidate(ctx, userID)
}
