package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/playtestbot/roster/internal/domain"
	"github.com/playtestbot/roster/internal/policy"
	"github.com/playtestbot/roster/internal/repository"
)

// StateMutator changes playtester records on behalf of a caller.
type StateMutator struct {
	players  repository.PlaytesterRepository
	guard    *PrivilegeGuard
	resolver *policy.EligibilityResolver
	logger   *slog.Logger
	settings
}

// NewStateMutator creates a new StateMutator.
func NewStateMutator(
	players repository.PlaytesterRepository,
	guard *PrivilegeGuard,
	resolver *policy.EligibilityResolver,
	logger *slog.Logger,
	opts ...Option,
) *StateMutator {
	return &StateMutator{
		players:  players,
		guard:    guard,
		resolver: resolver,
		logger:   logger,
		settings: applyOptions(opts),
	}
}

// SetState writes one override layer of target. Value 1 selects Added/Whitelisted,
// 0 selects Removed/Blacklisted. Callers may change themselves; admins may change anyone.
func (m *StateMutator) SetState(ctx context.Context, callerID, targetID string, kind domain.StateKind, value int) (p *domain.Playtester, err error) {
	var apply func(*domain.Playtester)
	var transition string

	switch kind {
	case domain.KindTemp:
		st, ok := domain.TempFromValue(value)
		if !ok {
			return nil, domain.ErrValidation(fmt.Sprintf("temp value must be 0 or 1, got %d", value))
		}
		apply = func(p *domain.Playtester) { p.TempState = st }
		transition = "temp_" + string(st)
	case domain.KindPerm:
		st, ok := domain.PermFromValue(value)
		if !ok {
			return nil, domain.ErrValidation(fmt.Sprintf("perm value must be 0 or 1, got %d", value))
		}
		apply = func(p *domain.Playtester) { p.PermState = st }
		transition = "perm_" + string(st)
	default:
		return nil, domain.ErrValidation(fmt.Sprintf("unknown state kind %q", kind))
	}

	defer func() { m.metrics.ObserveMutation(transition, outcome(err)) }()

	if err := domain.ValidateID(targetID); err != nil {
		return nil, err
	}
	if err := m.guard.VerifySelfOrAdmin(ctx, callerID, targetID); err != nil {
		return nil, err
	}
	return m.update(ctx, callerID, targetID, apply)
}

// Reset clears both override layers of target.
func (m *StateMutator) Reset(ctx context.Context, callerID, targetID string) (p *domain.Playtester, err error) {
	defer func() { m.metrics.ObserveMutation("reset", outcome(err)) }()

	if err := domain.ValidateID(targetID); err != nil {
		return nil, err
	}
	if err := m.guard.VerifySelfOrAdmin(ctx, callerID, targetID); err != nil {
		return nil, err
	}
	return m.update(ctx, callerID, targetID, func(p *domain.Playtester) {
		p.PermState = domain.PermNeutral
		p.TempState = domain.TempNeutral
	})
}

// SetAdmin grants or revokes admin rights. Admin only.
func (m *StateMutator) SetAdmin(ctx context.Context, callerID, targetID string, admin bool) (p *domain.Playtester, err error) {
	transition := "demote"
	if admin {
		transition = "promote"
	}
	defer func() { m.metrics.ObserveMutation(transition, outcome(err)) }()

	if err := domain.ValidateID(targetID); err != nil {
		return nil, err
	}
	if err := m.guard.VerifyAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	return m.update(ctx, callerID, targetID, func(p *domain.Playtester) { p.IsAdmin = admin })
}

// Register adds target to the roster population. Registering an existing id
// only renames it. Admin only.
func (m *StateMutator) Register(ctx context.Context, callerID, targetID, name string) (p *domain.Playtester, err error) {
	defer func() { m.metrics.ObserveMutation("register", outcome(err)) }()

	if err := domain.ValidateID(targetID); err != nil {
		return nil, err
	}
	if err := m.guard.VerifyAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	p, err = m.players.FindByID(ctx, targetID)
	if err != nil {
		return nil, domain.ErrStore("load playtester", err)
	}
	if p == nil {
		if name == "" {
			name = targetID
		}
		p = domain.NewPlaytester(targetID, name)
	} else if name != "" {
		p.Name = name
	}

	if err := m.players.Save(ctx, p); err != nil {
		return nil, domain.ErrStore("save playtester", err)
	}

	publish(ctx, m.logger, m.events, domain.NewPlaytesterEvent(domain.EventPlaytesterRegistered, callerID, p, m.now().UTC()))
	return p, nil
}

// Unregister deletes target. Admin only.
func (m *StateMutator) Unregister(ctx context.Context, callerID, targetID string) (err error) {
	defer func() { m.metrics.ObserveMutation("unregister", outcome(err)) }()

	if err := domain.ValidateID(targetID); err != nil {
		return err
	}
	if err := m.guard.VerifyAdmin(ctx, callerID); err != nil {
		return err
	}

	p, err := m.players.FindByID(ctx, targetID)
	if err != nil {
		return domain.ErrStore("load playtester", err)
	}
	if p == nil {
		return domain.ErrNotFound("playtester", targetID)
	}
	if err := m.players.Delete(ctx, targetID); err != nil {
		return domain.ErrStore("delete playtester", err)
	}

	publish(ctx, m.logger, m.events, domain.NewPlaytesterEvent(domain.EventPlaytesterRemoved, callerID, p, m.now().UTC()))
	return nil
}

// update loads target, applies fn and re-stamps LastRequestAt in a single write.
// A temp override from an earlier reset period is cleared first so the new stamp
// does not revive it.
func (m *StateMutator) update(ctx context.Context, callerID, targetID string, fn func(*domain.Playtester)) (*domain.Playtester, error) {
	p, err := m.players.FindByID(ctx, targetID)
	if err != nil {
		return nil, domain.ErrStore("load playtester", err)
	}
	if p == nil {
		return nil, domain.ErrNotFound("playtester", targetID)
	}

	now := m.now().UTC()
	p.TempState = p.EffectiveTempState(m.resolver.ResetBoundary(now))
	fn(p)
	p.LastRequestAt = now

	if err := m.players.Save(ctx, p); err != nil {
		return nil, domain.ErrStore("save playtester", err)
	}

	publish(ctx, m.logger, m.events, domain.NewPlaytesterEvent(domain.EventPlaytesterUpdated, callerID, p, now))
	return p, nil
}
