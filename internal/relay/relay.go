package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gloriamundo/gloriamundo/internal/availability"
	"github.com/gloriamundo/gloriamundo/internal/fallback"
	"github.com/gloriamundo/gloriamundo/internal/metrics"
	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/openrouter"
	"github.com/gloriamundo/gloriamundo/internal/server/resp"
	"github.com/gloriamundo/gloriamundo/internal/utils/log"
)

const (
	defaultHistoryLimit = 20
	patchTimeout        = 10 * time.Second
)

type Options struct {
	Resolver     Resolver
	Gate         Gate
	Upstream     Upstream
	Store        Store
	Metrics      *metrics.Metrics
	HistoryLimit int
	Timeout      time.Duration // bounds a whole upstream stream, zero means no bound
}

// Relay serves POST /chat: it resolves the model, applies the fallback gate
// and streams the upstream completion back as SSE.
type Relay struct {
	resolver     Resolver
	gate         Gate
	upstream     Upstream
	store        Store
	metrics      *metrics.Metrics
	historyLimit int
	timeout      time.Duration

	pending sync.WaitGroup
}

func New(opts Options) *Relay {
	r := &Relay{
		resolver:     opts.Resolver,
		gate:         opts.Gate,
		upstream:     opts.Upstream,
		store:        opts.Store,
		metrics:      opts.Metrics,
		historyLimit: opts.HistoryLimit,
		timeout:      opts.Timeout,
	}
	if r.gate == nil {
		r.gate = fallback.NewGate(nil)
	}
	if r.store == nil {
		r.store = DBStore{}
	}
	if r.historyLimit <= 0 {
		r.historyLimit = defaultHistoryLimit
	}
	return r
}

var defaultRelay atomic.Pointer[Relay]

func SetDefault(r *Relay) {
	defaultRelay.Store(r)
}

// Default returns the relay installed at start, or nil before that.
func Default() *Relay {
	return defaultRelay.Load()
}

// Wait blocks until every scheduled metadata patch has finished.
func (r *Relay) Wait() {
	r.pending.Wait()
}

// Chat runs the whole relay pipeline for one request.
func (r *Relay) Chat(c *gin.Context, who model.Identity) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidJSON)
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" && req.ImageURL == "" && len(req.Attachments) == 0 {
		resp.Error(c, http.StatusBadRequest, "message is required")
		return
	}
	if r.upstream == nil || !r.upstream.HasAPIKey() {
		log.Errorf("chat rejected: %v", openrouter.ErrNoAPIKey)
		r.metrics.Stream("no_api_key")
		resp.Error(c, http.StatusInternalServerError, openrouter.ErrNoAPIKey.Error())
		return
	}

	ctx := c.Request.Context()
	rec := newRecord(who, req)
	res := r.resolver.Resolve(ctx, req)
	rec.resolved(res)

	mode := fallback.ModeAuto
	if res.NeedsFallback() && !res.Implicit() {
		mode = r.gate.Mode(ctx, who)
		r.metrics.Fallback(string(res.Class), string(res.Reason), string(mode))
	}
	rec.log.FallbackMode = string(mode)

	setSSEHeaders(c)

	if res.NeedsFallback() && !res.Implicit() && mode == fallback.ModeConfirm {
		log.Infof("model %s %s for %s content, asking %s to confirm %s", res.Requested, res.Reason, res.Class, who.Key(), res.Selected)
		writeEvent(c, fallbackEvent(res))
		rec.log.FallbackDeferred = true
		r.finish(ctx, rec, "fallback_deferred", nil)
		return
	}
	if res.NeedsFallback() {
		log.Infof("model %q %s for %s content, serving %s instead", res.Requested, res.Reason, res.Class, res.Selected)
	} else {
		log.Infof("serving %s for %s content", res.Selected, res.Class)
	}

	conv, history := r.prepareConversation(ctx, who, req)
	if conv != nil {
		rec.log.ConversationID = conv.ID
	}

	chat, prompt := r.buildCompletion(ctx, who, req, res.Selected, history)
	rec.prompt = prompt

	upCtx, cancel := ctx, context.CancelFunc(func() {})
	if r.timeout > 0 {
		upCtx, cancel = context.WithTimeout(ctx, r.timeout)
	}
	defer cancel()

	response, err := r.upstream.StreamChat(upCtx, chat)
	if err != nil {
		log.Warnf("upstream request for %s failed: %v", res.Selected, err)
		writeEvent(c, errorEvent{Error: err.Error()})
		r.finish(ctx, rec, "upstream_error", err)
		return
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		err := openrouter.ReadError(response)
		log.Warnf("upstream rejected %s: %v", res.Selected, err)
		writeEvent(c, errorEvent{Error: err.Error()})
		r.finish(ctx, rec, "upstream_error", err)
		return
	}

	out := r.stream(upCtx, c, response, rec)
	switch {
	case out.err != nil:
		writeEvent(c, errorEvent{Error: out.err.Error()})
		r.finish(ctx, rec, out.outcome, out.err)
		return
	case !out.completed:
		log.Infof("client %s disconnected during stream", who.Key())
		r.finish(ctx, rec, out.outcome, errors.New("client disconnected"))
		return
	}

	var convID uint
	if conv != nil {
		convID = conv.ID
		r.saveAssistant(ctx, conv.ID, out.content, res.Selected, out.meta)
	}
	writeEvent(c, doneEvent{Done: true, ConversationID: convID, Model: res.Selected})
	rec.usage(out.meta)
	rec.output = out.content
	r.finish(ctx, rec, "completed", nil)
}

// prepareConversation finds or creates the conversation, loads its history
// and saves the user message. Failures are logged and the stream goes on
// without persistence.
func (r *Relay) prepareConversation(ctx context.Context, who model.Identity, req model.ChatRequest) (*model.Conversation, []model.Message) {
	conv, err := r.store.ConversationGetOrCreate(ctx, who, req.ConversationID, req.Message)
	if err != nil {
		log.Errorf("failed to open conversation for %s: %v", who.Key(), err)
		return nil, nil
	}

	var history []model.Message
	if len(req.History) == 0 && req.ConversationID != nil && *req.ConversationID == conv.ID {
		history, err = r.store.MessageRecent(ctx, conv.ID, r.historyLimit)
		if err != nil {
			log.Errorf("failed to load history of conversation %d: %v", conv.ID, err)
			history = nil
		}
	}

	if err := r.store.MessageAdd(ctx, &model.Message{
		ConversationID: conv.ID,
		Role:           model.RoleUser,
		Content:        req.Message,
	}); err != nil {
		log.Errorf("failed to save user message in conversation %d: %v", conv.ID, err)
	}
	return conv, history
}

// saveAssistant persists the streamed text and schedules the usage patch.
// The insert never waits for metadata.
func (r *Relay) saveAssistant(ctx context.Context, convID uint, content, selected string, meta model.MessageMeta) {
	used := selected
	if err := r.store.MessageAdd(ctx, &model.Message{
		ConversationID: convID,
		Role:           model.RoleAssistant,
		Content:        content,
		ModelIDUsed:    &used,
	}); err != nil {
		log.Errorf("failed to save assistant message in conversation %d: %v", convID, err)
		return
	}
	if meta.Empty() {
		return
	}
	r.pending.Add(1)
	go func() {
		defer r.pending.Done()
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), patchTimeout)
		defer cancel()
		if err := r.store.MessagePatchLatestAssistant(pctx, convID, meta); err != nil {
			log.Warnf("failed to attach usage to conversation %d: %v", convID, err)
		}
	}()
}

func fallbackEvent(res availability.Resolution) FallbackEvent {
	return FallbackEvent{
		Type:               EventModelFallback,
		RequestedModel:     res.Requested,
		RequestedModelName: res.RequestedName,
		FallbackModel:      res.Selected,
		FallbackModelName:  res.SelectedName,
		Reason:             string(res.Reason),
		ContentClass:       string(res.Class),
		Message:            "The requested model is not available. Re-submit with the suggested model to continue.",
	}
}

func setSSEHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
}

func writeEvent(c *gin.Context, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Errorf("failed to encode event: %v", err)
		return
	}
	c.Writer.Write([]byte("data: "))
	c.Writer.Write(data)
	c.Writer.Write([]byte("\n\n"))
	c.Writer.Flush()
}
