package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/utils/log"
	"github.com/tidwall/gjson"
	"github.com/tmaxmax/go-sse"
)

const doneSentinel = "[DONE]"

// extractor pulls text from one upstream chunk. ok is false when the field is
// missing or null, which lets the next extractor try.
type extractor func(chunk gjson.Result) (text string, ok bool)

func pathExtractor(path string) extractor {
	return func(chunk gjson.Result) (string, bool) {
		v := chunk.Get(path)
		if !v.Exists() || v.Type == gjson.Null {
			return "", false
		}
		return v.String(), true
	}
}

// Chat-completion deltas first, then legacy completion text, then the bare
// content field some providers emit.
var contentExtractors = []extractor{
	pathExtractor("choices.0.delta.content"),
	pathExtractor("choices.0.text"),
	pathExtractor("choices.0.content"),
}

func extractContent(chunk gjson.Result) string {
	for _, ex := range contentExtractors {
		if text, ok := ex(chunk); ok {
			return text
		}
	}
	return ""
}

// extractMeta copies whatever usage fields the chunk carries into meta.
func extractMeta(chunk gjson.Result, meta *model.MessageMeta) {
	if v := chunk.Get("usage.prompt_tokens"); v.Exists() && v.Type == gjson.Number {
		n := int(v.Int())
		meta.PromptTokens = &n
	}
	if v := chunk.Get("usage.completion_tokens"); v.Exists() && v.Type == gjson.Number {
		n := int(v.Int())
		meta.CompletionTokens = &n
	}
	if v := chunk.Get("model"); v.Type == gjson.String && v.String() != "" {
		id := v.String()
		meta.ModelID = &id
	}
}

// chunkError reports an error object embedded in a chunk.
func chunkError(chunk gjson.Result) error {
	e := chunk.Get("error")
	if !e.Exists() || e.Type == gjson.Null {
		return nil
	}
	if msg := e.Get("message"); msg.Exists() && msg.String() != "" {
		return fmt.Errorf("upstream error: %s", msg.String())
	}
	return fmt.Errorf("upstream error: %s", e.String())
}

type streamResult struct {
	content   string
	meta      model.MessageMeta
	completed bool
	outcome   string
	err       error
}

// stream forwards upstream text until [DONE], a clean EOF, an error or the
// client going away.
func (r *Relay) stream(ctx context.Context, c *gin.Context, response *http.Response, rec *record) streamResult {
	if ct := response.Header.Get("Content-Type"); ct != "" && !strings.Contains(strings.ToLower(ct), "text/event-stream") {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 16*1024))
		return streamResult{outcome: "upstream_error", err: fmt.Errorf("upstream returned non-SSE content-type %q: %s", ct, string(body))}
	}

	type sseReadResult struct {
		data string
		err  error
	}
	results := make(chan sseReadResult, 1)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		defer close(results)
		readCfg := &sse.ReadConfig{MaxEventSize: maxSSEEventSize}
		for ev, err := range sse.Read(response.Body, readCfg) {
			select {
			case results <- sseReadResult{data: ev.Data, err: err}:
			case <-stop:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	var (
		buf  strings.Builder
		meta model.MessageMeta
	)
	for {
		select {
		case <-ctx.Done():
			return interrupted(ctx)
		case res, ok := <-results:
			if !ok {
				log.Infof("upstream closed the stream without %s", doneSentinel)
				return streamResult{content: buf.String(), meta: meta, completed: true}
			}
			if res.err != nil {
				if ctx.Err() != nil || errors.Is(res.err, context.Canceled) {
					return interrupted(ctx)
				}
				log.Warnf("failed to read event: %v", res.err)
				return streamResult{outcome: "upstream_error", err: fmt.Errorf("failed to read stream event: %w", res.err)}
			}

			data := strings.TrimSpace(res.data)
			if data == "" {
				continue
			}
			if data == doneSentinel {
				return streamResult{content: buf.String(), meta: meta, completed: true}
			}
			if !gjson.Valid(data) {
				log.Warnf("upstream sent an invalid chunk: %.200s", data)
				return streamResult{outcome: "invalid_chunk", err: errors.New("invalid JSON chunk from upstream")}
			}
			chunk := gjson.Parse(data)
			if err := chunkError(chunk); err != nil {
				return streamResult{outcome: "upstream_error", err: err}
			}
			extractMeta(chunk, &meta)

			text := extractContent(chunk)
			if text == "" {
				continue
			}
			if buf.Len() == 0 {
				rec.firstToken = time.Now()
			}
			buf.WriteString(text)
			writeEvent(c, contentEvent{Content: text})
		}
	}
}

// interrupted classifies a stream cut short by ctx: the upstream deadline is
// an error for the client, anything else means the client went away.
func interrupted(ctx context.Context) streamResult {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return streamResult{outcome: "upstream_error", err: errors.New("upstream stream timed out")}
	}
	return streamResult{outcome: "client_gone"}
}
