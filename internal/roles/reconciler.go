// Package roles keeps the representative role held by exactly the members who represent a partner.
package roles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/partnerbot/backend/internal/models"
	"github.com/partnerbot/backend/internal/platform"
)

// LinkStore reads representative links in both directions.
type LinkStore interface {
	// RepresentativeUsers returns the distinct users linked to any partner of org.
	RepresentativeUsers(ctx context.Context, org snowflake.ID) ([]snowflake.ID, error)
	// CountRepresentations counts links of user to partners of org.
	CountRepresentations(ctx context.Context, org, user snowflake.ID) (int, error)
}

// SettingsStore reads the configured representative role.
type SettingsStore interface {
	GetSettings(ctx context.Context, org snowflake.ID) (*models.OrganizationSettings, error)
}

// Report summarizes one sweep. Forbidden and Departed members did not abort it.
type Report struct {
	OrganizationID snowflake.ID   `json:"organization_id"`
	Role           snowflake.ID   `json:"role"`
	Desired        int            `json:"desired"`
	Scanned        int            `json:"scanned"`
	Added          int            `json:"added"`
	Removed        int            `json:"removed"`
	Forbidden      []snowflake.ID `json:"forbidden,omitempty"`
	Departed       []snowflake.ID `json:"departed,omitempty"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
	Error          string         `json:"error,omitempty"`
}

// SweepError is the hard failure that aborted a sweep.
type SweepError struct {
	Op     string
	UserID snowflake.ID
	Err    error
}

func (e *SweepError) Error() string {
	if e.UserID == 0 {
		return fmt.Sprintf("role sweep: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("role sweep: %s user %s: %v", e.Op, e.UserID, e.Err)
}

func (e *SweepError) Unwrap() error { return e.Err }

// Outcome is the result of syncing one member.
type Outcome string

const (
	OutcomeNoRole    Outcome = "no_role"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeAdded     Outcome = "added"
	OutcomeRemoved   Outcome = "removed"
	OutcomeForbidden Outcome = "forbidden"
	OutcomeDeparted  Outcome = "departed"
)

// Warning returns the operator-facing warning for soft failures, or "".
func (o Outcome) Warning() string {
	if o == OutcomeForbidden {
		return "The bot does not have permission to update the partner role; update it manually."
	}
	return ""
}

// Reconciler diffs desired role holders against live guild membership.
type Reconciler struct {
	links    LinkStore
	settings SettingsStore
	members  platform.Membership
	logger   *zap.Logger
	now      func() time.Time
}

// NewReconciler creates a role reconciler.
func NewReconciler(links LinkStore, settings SettingsStore, members platform.Membership, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{links: links, settings: settings, members: members, logger: logger, now: time.Now}
}

// Sweep enumerates every member of org and adds or removes role so that exactly the
// representatives hold it. A nil role is a no-op. Forbidden and departed members are recorded
// and skipped; any other failure aborts the sweep.
func (r *Reconciler) Sweep(ctx context.Context, org snowflake.ID, role *snowflake.ID) (Report, error) {
	rep := Report{OrganizationID: org, StartedAt: r.now()}
	if role == nil {
		rep.FinishedAt = rep.StartedAt
		return rep, nil
	}
	rep.Role = *role

	users, err := r.links.RepresentativeUsers(ctx, org)
	if err != nil {
		return r.fail(rep, &SweepError{Op: "load representatives", Err: err})
	}
	desired := make(map[snowflake.ID]struct{}, len(users))
	for _, u := range users {
		desired[u] = struct{}{}
	}
	rep.Desired = len(desired)

	err = r.members.Members(ctx, org, func(m platform.Member) error {
		rep.Scanned++
		_, want := desired[m.UserID]
		has := m.HasRole(*role)
		if want == has {
			return nil
		}

		op, err := r.apply(ctx, org, m.UserID, *role, want)
		if err == nil {
			if want {
				rep.Added++
			} else {
				rep.Removed++
			}
			return nil
		}
		switch platform.KindOf(err) {
		case platform.KindForbidden:
			r.logger.Warn("role change forbidden",
				zap.String("organization_id", org.String()),
				zap.String("user_id", m.UserID.String()),
				zap.String("op", op))
			rep.Forbidden = append(rep.Forbidden, m.UserID)
		case platform.KindNotFound:
			rep.Departed = append(rep.Departed, m.UserID)
		case platform.KindOther:
			return &SweepError{Op: op, UserID: m.UserID, Err: err}
		}
		return nil
	})
	if err != nil {
		var serr *SweepError
		if !errors.As(err, &serr) {
			serr = &SweepError{Op: "enumerate members", Err: err}
		}
		return r.fail(rep, serr)
	}

	rep.FinishedAt = r.now()
	r.logger.Info("role sweep finished",
		zap.String("organization_id", org.String()),
		zap.Int("scanned", rep.Scanned),
		zap.Int("added", rep.Added),
		zap.Int("removed", rep.Removed),
		zap.Int("forbidden", len(rep.Forbidden)),
		zap.Int("departed", len(rep.Departed)))
	return rep, nil
}

// SyncMember applies the sweep comparison to a single member. It runs after every
// representative add or remove.
func (r *Reconciler) SyncMember(ctx context.Context, org, user snowflake.ID) (Outcome, error) {
	settings, err := r.settings.GetSettings(ctx, org)
	if err != nil {
		return "", err
	}
	if settings.RepresentativeRole == nil {
		return OutcomeNoRole, nil
	}
	role := *settings.RepresentativeRole

	count, err := r.links.CountRepresentations(ctx, org, user)
	if err != nil {
		return "", fmt.Errorf("count representations: %w", err)
	}
	want := count > 0

	member, err := r.members.Member(ctx, org, user)
	if err != nil {
		return r.softOutcome(org, user, "fetch member", err)
	}
	if member.HasRole(role) == want {
		return OutcomeUnchanged, nil
	}
	op, err := r.apply(ctx, org, user, role, want)
	if err != nil {
		return r.softOutcome(org, user, op, err)
	}
	if want {
		return OutcomeAdded, nil
	}
	return OutcomeRemoved, nil
}

func (r *Reconciler) apply(ctx context.Context, org, user, role snowflake.ID, add bool) (string, error) {
	if add {
		return "add role", r.members.AddRole(ctx, org, user, role)
	}
	return "remove role", r.members.RemoveRole(ctx, org, user, role)
}

func (r *Reconciler) softOutcome(org, user snowflake.ID, op string, err error) (Outcome, error) {
	switch platform.KindOf(err) {
	case platform.KindNotFound:
		return OutcomeDeparted, nil
	case platform.KindForbidden:
		r.logger.Warn("role change forbidden",
			zap.String("organization_id", org.String()),
			zap.String("user_id", user.String()),
			zap.String("op", op))
		return OutcomeForbidden, nil
	}
	return "", &SweepError{Op: op, UserID: user, Err: err}
}

func (r *Reconciler) fail(rep Report, err *SweepError) (Report, error) {
	rep.FinishedAt = r.now()
	rep.Error = err.Error()
	return rep, err
}
