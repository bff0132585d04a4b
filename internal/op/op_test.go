package op

import (
	"context"
	"testing"

	"github.com/gloriamundo/gloriamundo/internal/db"
	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) context.Context {
	t.Helper()
	require.NoError(t, db.InitMemory())
	require.NoError(t, InitCache())
	t.Cleanup(func() { _ = db.Close() })
	return context.Background()
}

func TestSettingsDefaultsAndValidation(t *testing.T) {
	ctx := setupDB(t)

	v, err := SettingGetInt(model.SettingKeyCatalogRefreshInterval)
	require.NoError(t, err)
	require.Equal(t, 6, v)

	require.NoError(t, SettingSetString(ctx, model.SettingKeyCatalogRefreshInterval, "12"))
	v, err = SettingGetInt(model.SettingKeyCatalogRefreshInterval)
	require.NoError(t, err)
	require.Equal(t, 12, v)

	require.Error(t, SettingSetString(ctx, model.SettingKeyCatalogRefreshInterval, "soon"))
	require.Error(t, SettingSetString(ctx, model.SettingKeyProxyURL, "ftp://proxy"))
	require.Error(t, SettingSetString(ctx, model.SettingKey("nope"), "x"))
}

func TestUserCreateAndVerify(t *testing.T) {
	ctx := setupDB(t)

	u, err := UserCreate(ctx, "alice", "secret123", false)
	require.NoError(t, err)
	require.NotZero(t, u.ID)

	_, err = UserCreate(ctx, "alice", "other", false)
	require.ErrorIs(t, err, ErrUsernameTaken)

	got, err := UserVerify(ctx, "alice", "secret123")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = UserVerify(ctx, "alice", "wrong")
	require.Error(t, err)

	s, err := ChatSettingsGet(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, s.AutoFallbackEnabled)
}

func TestUserInitSeedsAdminOnce(t *testing.T) {
	ctx := setupDB(t)
	require.NoError(t, UserInit())
	require.NoError(t, UserInit())

	var users []model.User
	require.NoError(t, db.GetDB().WithContext(ctx).Find(&users).Error)
	require.Len(t, users, 1)
	require.True(t, users[0].IsAdmin)
}

func TestChatSettingsUpdate(t *testing.T) {
	ctx := setupDB(t)

	s, err := ChatSettingsGet(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, uint(42), s.UserID)
	require.False(t, s.AutoFallbackEnabled)

	s, err = ChatSettingsUpdate(ctx, 42, model.UserChatSettingsUpdate{
		AutoFallbackEnabled: lo.ToPtr(true),
		SystemPrompt:        lo.ToPtr("be brief"),
	})
	require.NoError(t, err)
	require.True(t, s.AutoFallbackEnabled)

	s, err = ChatSettingsGet(ctx, 42)
	require.NoError(t, err)
	require.True(t, s.AutoFallbackEnabled)
	require.Equal(t, "be brief", s.SystemPrompt)

	s, err = ChatSettingsUpdate(ctx, 42, model.UserChatSettingsUpdate{AutoFallbackEnabled: lo.ToPtr(false)})
	require.NoError(t, err)
	require.False(t, s.AutoFallbackEnabled)
	require.Equal(t, "be brief", s.SystemPrompt)
}

func TestConversationOwnership(t *testing.T) {
	ctx := setupDB(t)
	alice := model.Identity{UserID: 1}
	anon := model.Identity{AnonymousID: "sess-1"}

	conv, err := ConversationGetOrCreate(ctx, alice, nil, "hello there")
	require.NoError(t, err)
	require.Equal(t, "hello there", conv.Title)

	same, err := ConversationGetOrCreate(ctx, alice, &conv.ID, "ignored")
	require.NoError(t, err)
	require.Equal(t, conv.ID, same.ID)

	// another caller passing alice's id gets a fresh conversation
	other, err := ConversationGetOrCreate(ctx, anon, &conv.ID, "hi")
	require.NoError(t, err)
	require.NotEqual(t, conv.ID, other.ID)
	require.Nil(t, other.UserID)

	_, err = ConversationGet(ctx, anon, conv.ID)
	require.ErrorIs(t, err, ErrConversationNotFound)

	list, err := ConversationList(ctx, alice, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.ErrorIs(t, ConversationDelete(ctx, anon, conv.ID), ErrConversationNotFound)
	require.NoError(t, ConversationDelete(ctx, alice, conv.ID))
}

func TestMessagePatchLatestAssistant(t *testing.T) {
	ctx := setupDB(t)
	conv, err := ConversationGetOrCreate(ctx, model.Identity{UserID: 1}, nil, "q")
	require.NoError(t, err)

	require.Error(t, MessagePatchLatestAssistant(ctx, conv.ID, model.MessageMeta{PromptTokens: lo.ToPtr(1)}))

	first := &model.Message{ConversationID: conv.ID, Role: model.RoleAssistant, Content: "a", ModelIDUsed: lo.ToPtr("openai/gpt-4o")}
	require.NoError(t, MessageAdd(ctx, first))
	require.NoError(t, MessageAdd(ctx, &model.Message{ConversationID: conv.ID, Role: model.RoleUser, Content: "q2"}))
	second := &model.Message{ConversationID: conv.ID, Role: model.RoleAssistant, Content: "b", ModelIDUsed: lo.ToPtr("openai/gpt-4o")}
	require.NoError(t, MessageAdd(ctx, second))

	require.NoError(t, MessagePatchLatestAssistant(ctx, conv.ID, model.MessageMeta{
		PromptTokens:     lo.ToPtr(10),
		CompletionTokens: lo.ToPtr(3),
	}))

	msgs, err := MessageList(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Nil(t, msgs[0].PromptTokens)
	require.Equal(t, 10, *msgs[2].PromptTokens)
	require.Equal(t, 3, *msgs[2].CompletionTokens)
	require.Equal(t, "openai/gpt-4o", *msgs[2].ModelIDUsed)

	recent, err := MessageRecent(ctx, conv.ID, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"q2", "b"}, []string{recent[0].Content, recent[1].Content})

	require.Error(t, MessageAdd(ctx, &model.Message{Role: model.RoleUser}))
}

func TestCatalogSync(t *testing.T) {
	ctx := setupDB(t)

	res, err := CatalogSync(ctx, []model.ModelDescriptor{
		{ModelID: "openai/gpt-4o", DisplayName: "GPT-4o", IsMultimodal: true},
		{ModelID: "google/gemini-pro"},
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"openai/gpt-4o", "google/gemini-pro"}, res.Added)
	require.Empty(t, res.Deactivated)

	m, ok := CatalogGet("google/gemini-pro")
	require.True(t, ok)
	require.Equal(t, "google/gemini-pro", m.DisplayName)

	res, err = CatalogSync(ctx, []model.ModelDescriptor{
		{ModelID: "openai/gpt-4o", DisplayName: "GPT-4o"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"google/gemini-pro"}, res.Deactivated)

	ids, err := CatalogActiveIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"openai/gpt-4o"}, ids)

	all, err := CatalogList(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.False(t, CatalogLastSync().IsZero())
}

func TestTransactionCreateIsIdempotent(t *testing.T) {
	ctx := setupDB(t)
	txn := &model.Transaction{ExternalID: "pi_1", UserID: 1, Currency: "usd"}
	require.NoError(t, TransactionCreate(ctx, txn))
	require.ErrorIs(t, TransactionCreate(ctx, &model.Transaction{ExternalID: "pi_1", UserID: 1, Currency: "usd"}), ErrTransactionExists)

	list, err := TransactionList(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestRelayLogBuffer(t *testing.T) {
	ctx := setupDB(t)
	require.NoError(t, RelayLogClear(ctx))

	require.NoError(t, RelayLogAdd(ctx, model.RelayLog{RequestModelName: "a/b"}))
	require.NoError(t, RelayLogAdd(ctx, model.RelayLog{RequestModelName: "c/d", ActualModelName: "a/b", FallbackApplied: true}))
	logs, err := RelayLogList(ctx, model.RelayLogQuery{})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.Equal(t, "c/d", logs[0].RequestModelName)

	require.NoError(t, RelayLogSaveDBTask(ctx))
	var n int64
	require.NoError(t, db.GetDB().Model(&model.RelayLog{}).Count(&n).Error)
	require.Equal(t, int64(2), n)

	// after the flush the same filters run in SQL
	logs, err = RelayLogList(ctx, model.RelayLogQuery{FallbackOnly: true})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	logs, err = RelayLogList(ctx, model.RelayLogQuery{Model: "a/b"})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	logs, err = RelayLogList(ctx, model.RelayLogQuery{Page: 2, PageSize: 1})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, "a/b", logs[0].RequestModelName)
}
