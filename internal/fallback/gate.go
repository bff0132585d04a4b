// Package fallback decides whether a model substitution may happen silently
// or needs the caller's confirmation.
package fallback

import (
	"context"

	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/op"
	"github.com/gloriamundo/gloriamundo/internal/utils/log"
)

type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeConfirm Mode = "confirm"
)

// SettingsLookup loads the chat settings of a signed-in user.
type SettingsLookup func(ctx context.Context, userID uint) (model.UserChatSettings, error)

type Gate struct {
	lookup SettingsLookup
}

func NewGate(lookup SettingsLookup) *Gate {
	if lookup == nil {
		lookup = op.ChatSettingsGet
	}
	return &Gate{lookup: lookup}
}

// Mode is ModeAuto only for a signed-in user whose settings enable it.
// Anonymous callers and failed lookups get ModeConfirm.
func (g *Gate) Mode(ctx context.Context, who model.Identity) Mode {
	if who.Anonymous() {
		return ModeConfirm
	}
	s, err := g.lookup(ctx, who.UserID)
	if err != nil {
		log.Errorf("chat settings lookup for user %d failed, requiring confirmation: %v", who.UserID, err)
		return ModeConfirm
	}
	if s.AutoFallbackEnabled {
		return ModeAuto
	}
	return ModeConfirm
}
