// Package tz resolves the effective IANA timezone for a user.
package tz

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/subwatch/reminder-dispatch/internal/domain"
)

// UserZoneSource derives a zone from the user's stored profile, falling
// back to their timezone cookie. The derivation itself is an external
// concern; implementations live in the repository package.
type UserZoneSource interface {
	UserZone(ctx context.Context, userID string) (string, error)
}

// Resolver walks the zone priority chain:
//
//  1. the snapshot's own settings.zone, when it looks like an IANA name
//  2. the zone derived from the user's profile / cookie
//  3. "UTC"
//
// Resolve never fails; every error collapses to the next link in the chain.
type Resolver struct {
	users  UserZoneSource
	logger *zap.Logger
}

func NewResolver(users UserZoneSource, logger *zap.Logger) *Resolver {
	return &Resolver{users: users, logger: logger}
}

// Resolve returns the effective IANA zone identifier for the snapshot.
func (r *Resolver) Resolve(ctx context.Context, settings domain.Settings, userID string) string {
	if LooksIANA(settings.Zone) {
		return settings.Zone
	}

	if r.users != nil {
		zone, err := r.users.UserZone(ctx, userID)
		if err != nil {
			r.logger.Debug("user zone lookup failed, falling back to UTC",
				zap.String("user_id", userID), zap.Error(err))
		} else if zone != "" {
			return zone
		}
	}

	return "UTC"
}

// LooksIANA is the heuristic validity check for an IANA zone name:
// region-qualified names ("America/Denver") contain a slash, fixed
// offsets and legacy abbreviations do not.
func LooksIANA(zone string) bool {
	return strings.Contains(zone, "/")
}
