package fallback

import (
	"context"
	"errors"
	"testing"

	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/stretchr/testify/require"
)

func lookupReturning(s model.UserChatSettings, err error) SettingsLookup {
	return func(context.Context, uint) (model.UserChatSettings, error) { return s, err }
}

func TestGateMode(t *testing.T) {
	ctx := context.Background()
	user := model.Identity{UserID: 7}
	anon := model.Identity{AnonymousID: "abc"}

	g := NewGate(lookupReturning(model.UserChatSettings{AutoFallbackEnabled: true}, nil))
	require.Equal(t, ModeAuto, g.Mode(ctx, user))
	require.Equal(t, ModeConfirm, g.Mode(ctx, anon))

	g = NewGate(lookupReturning(model.UserChatSettings{}, nil))
	require.Equal(t, ModeConfirm, g.Mode(ctx, user))

	g = NewGate(lookupReturning(model.UserChatSettings{AutoFallbackEnabled: true}, errors.New("db down")))
	require.Equal(t, ModeConfirm, g.Mode(ctx, user))
}

func TestGateAnonymousNeverLooksUp(t *testing.T) {
	called := false
	g := NewGate(func(context.Context, uint) (model.UserChatSettings, error) {
		called = true
		return model.UserChatSettings{AutoFallbackEnabled: true}, nil
	})
	require.Equal(t, ModeConfirm, g.Mode(context.Background(), model.Identity{}))
	require.False(t, called)
}
