package service

import (
	"context"

	"github.com/playtestbot/roster/internal/domain"
	"github.com/playtestbot/roster/internal/repository"
)

// PrivilegeGuard answers whether a caller may act on other playtesters.
type PrivilegeGuard struct {
	players repository.PlaytesterRepository
}

// NewPrivilegeGuard creates a new PrivilegeGuard.
func NewPrivilegeGuard(players repository.PlaytesterRepository) *PrivilegeGuard {
	return &PrivilegeGuard{players: players}
}

// VerifyAdmin succeeds iff userID is a registered admin.
func (g *PrivilegeGuard) VerifyAdmin(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrNotAuthorized("unknown caller")
	}
	n, err := g.players.CountAdmins(ctx, userID)
	if err != nil {
		return domain.ErrStore("verify admin", err)
	}
	if n == 0 {
		return domain.ErrNotAuthorized("only admins can do that")
	}
	return nil
}

// VerifySelfOrAdmin lets callers act on their own record, and admins on anyone's.
func (g *PrivilegeGuard) VerifySelfOrAdmin(ctx context.Context, callerID, targetID string) error {
	if callerID != "" && callerID == targetID {
		return nil
	}
	if err := g.VerifyAdmin(ctx, callerID); err != nil {
		if domain.IsCode(err, domain.CodeNotAuthorized) {
			return domain.ErrNotAuthorized("only admins can change another playtester's state")
		}
		return err
	}
	return nil
}
