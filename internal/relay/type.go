package relay

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gloriamundo/gloriamundo/internal/availability"
	"github.com/gloriamundo/gloriamundo/internal/conf"
	"github.com/gloriamundo/gloriamundo/internal/fallback"
	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/op"
	"github.com/gloriamundo/gloriamundo/internal/openrouter"
)

// maxSSEEventSize bounds a single upstream SSE event. Image-capable models can
// echo large base64 payloads, so the default is generous. It can be overridden
// with GLORIAMUNDO_RELAY_MAX_SSE_EVENT_SIZE.
var maxSSEEventSize = 32 * 1024 * 1024

func init() {
	if raw := strings.TrimSpace(os.Getenv(strings.ToUpper(conf.APP_NAME) + "_RELAY_MAX_SSE_EVENT_SIZE")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			maxSSEEventSize = v
		}
	}
}

const EventModelFallback = "model_fallback"

type contentEvent struct {
	Content string `json:"content"`
}

type errorEvent struct {
	Error string `json:"error"`
}

type doneEvent struct {
	Done           bool   `json:"done"`
	ConversationID uint   `json:"conversation_id"`
	Model          string `json:"model"`
}

// FallbackEvent asks the client to confirm a model substitution. The client
// re-submits with an explicit model to proceed.
type FallbackEvent struct {
	Type               string `json:"type"`
	RequestedModel     string `json:"requested_model"`
	RequestedModelName string `json:"requested_model_name"`
	FallbackModel      string `json:"fallback_model"`
	FallbackModelName  string `json:"fallback_model_name"`
	Reason             string `json:"reason"`
	ContentClass       string `json:"content_class"`
	Message            string `json:"message"`
}

// Resolver picks the model that serves a request.
type Resolver interface {
	Resolve(ctx context.Context, req model.ChatRequest) availability.Resolution
}

// Gate decides whether a fallback may be applied without asking.
type Gate interface {
	Mode(ctx context.Context, who model.Identity) fallback.Mode
}

type Upstream interface {
	HasAPIKey() bool
	StreamChat(ctx context.Context, chat openrouter.ChatCompletion) (*http.Response, error)
}

// Store is the persistence the relay needs. Every call is its own commit.
type Store interface {
	ConversationGetOrCreate(ctx context.Context, who model.Identity, id *uint, firstMessage string) (*model.Conversation, error)
	MessageAdd(ctx context.Context, msg *model.Message) error
	MessageRecent(ctx context.Context, conversationID uint, limit int) ([]model.Message, error)
	MessagePatchLatestAssistant(ctx context.Context, conversationID uint, meta model.MessageMeta) error
	ChatSettings(ctx context.Context, userID uint) (model.UserChatSettings, error)
	Describe(id string) (model.ModelDescriptor, bool)
	RelayLogAdd(ctx context.Context, l model.RelayLog) error
}

// DBStore is the Store backed by the op layer.
type DBStore struct{}

func (DBStore) ConversationGetOrCreate(ctx context.Context, who model.Identity, id *uint, firstMessage string) (*model.Conversation, error) {
	return op.ConversationGetOrCreate(ctx, who, id, firstMessage)
}

func (DBStore) MessageAdd(ctx context.Context, msg *model.Message) error {
	return op.MessageAdd(ctx, msg)
}

func (DBStore) MessageRecent(ctx context.Context, conversationID uint, limit int) ([]model.Message, error) {
	return op.MessageRecent(ctx, conversationID, limit)
}

func (DBStore) MessagePatchLatestAssistant(ctx context.Context, conversationID uint, meta model.MessageMeta) error {
	return op.MessagePatchLatestAssistant(ctx, conversationID, meta)
}

func (DBStore) ChatSettings(ctx context.Context, userID uint) (model.UserChatSettings, error) {
	return op.ChatSettingsGet(ctx, userID)
}

func (DBStore) Describe(id string) (model.ModelDescriptor, bool) {
	return op.CatalogGet(id)
}

func (DBStore) RelayLogAdd(ctx context.Context, l model.RelayLog) error {
	return op.RelayLogAdd(ctx, l)
}
