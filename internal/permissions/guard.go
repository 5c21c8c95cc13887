package permissions

import (
	"context"

	"github.com/mobil3801/dfs-manager-portal/internal/catalog"
)

// DenialReason tags why the guard said no. The three kinds are distinct so
// callers can explain the denial; they are never conflated.
type DenialReason string

const (
	DenyMissingPermission DenialReason = "missing_permission"
	DenyStationMismatch   DenialReason = "station_mismatch"
	DenyInsufficientRole  DenialReason = "insufficient_role"
)

// Decision is the guard's verdict. Denials are values, not errors.
type Decision struct {
	Allowed bool         `json:"allowed"`
	Reason  DenialReason `json:"reason,omitempty"`
	// Degraded reflects a template-fallback resolution behind the decision;
	// callers may surface a non-blocking warning.
	Degraded bool `json:"degraded,omitempty"`
}

func allow(degraded bool) Decision { return Decision{Allowed: true, Degraded: degraded} }
func deny(r DenialReason) Decision { return Decision{Allowed: false, Reason: r} }

// CheckOptions carries the optional constraints of a guard check.
type CheckOptions struct {
	// TargetStation, when set, must match the principal's station unless the
	// principal carries the ALL_STATIONS wildcard.
	TargetStation string
	// MinRole, when set, is the minimum role the guarded feature demands.
	MinRole Role
}

// Observer receives guard decisions for metrics.
type Observer interface {
	ObserveDecision(allowed bool, reason string)
}

// Guard answers "may principal P do action A on page M in station S". It is
// stateless per call and safe for concurrent use; many gated UI elements may
// be checked at once.
type Guard struct {
	resolver *Resolver
	observer Observer
}

// NewGuard constructs a Guard. observer may be nil.
func NewGuard(resolver *Resolver, observer Observer) *Guard {
	return &Guard{resolver: resolver, observer: observer}
}

// MeetsRole reports whether the principal satisfies the minimum role in the
// Employee < Management/Manager < Administrator order.
func MeetsRole(p Principal, min Role) bool {
	return p.Role.Meets(min)
}

// Allow evaluates the decision sequence: effective permission, then station
// scope, then minimum role. All must pass. The returned error is non-nil only
// while the principal's matrix is still being resolved (the in-flight fetch
// was cancelled or superseded); callers must treat that as "pending", not as
// a denial.
func (g *Guard) Allow(ctx context.Context, p Principal, pageKey string, action catalog.Action, opts CheckOptions) (Decision, error) {
	res, err := g.resolver.Effective(ctx, p)
	if err != nil {
		return Decision{}, err
	}

	decision := g.evaluate(res, p, pageKey, action, opts)
	if g.observer != nil {
		g.observer.ObserveDecision(decision.Allowed, string(decision.Reason))
	}
	return decision, nil
}

func (g *Guard) evaluate(res Resolution, p Principal, pageKey string, action catalog.Action, opts CheckOptions) Decision {
	if !res.Matrix.Cell(pageKey).Allows(action) {
		return deny(DenyMissingPermission)
	}
	if opts.TargetStation != "" && p.Station != catalog.AllStations && p.Station != opts.TargetStation {
		return deny(DenyStationMismatch)
	}
	if opts.MinRole != RoleUnknown && !MeetsRole(p, opts.MinRole) {
		return deny(DenyInsufficientRole)
	}
	return allow(res.Degraded)
}
