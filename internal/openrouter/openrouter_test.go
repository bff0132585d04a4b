package openrouter

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const catalogJSON = `{"data":[
 {"id":"openai/gpt-4o","name":"OpenAI: GPT-4o","context_length":128000,
  "architecture":{"modality":"text+image->text","input_modalities":["text","image"]},
  "pricing":{"prompt":"0.0000025","completion":"0.00001"},
  "supported_parameters":["temperature","tools"]},
 {"id":"deepseek/deepseek-r1:free","name":"DeepSeek R1 (free)",
  "architecture":{"modality":"text->text"},
  "pricing":{"prompt":"0","completion":"0"},
  "top_provider":{"context_length":64000},
  "supported_parameters":["reasoning","include_reasoning"]},
 {"id":"anthropic/claude-3-haiku-20240307","name":"Claude 3 Haiku",
  "architecture":{"input_modalities":["text","image","file"]},
  "pricing":{"prompt":"0.00000025","completion":"0.00000125"}}
]}`

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchCatalog(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.Equal(t, "GloriaMundo", r.Header.Get("X-Title"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, catalogJSON)
	})

	c, err := New(Options{BaseURL: srv.URL, APIKey: "sk-test", Title: "GloriaMundo", HTTPClient: srv.Client()})
	require.NoError(t, err)

	models, err := c.FetchCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 3)

	gpt := models[0]
	require.Equal(t, "openai/gpt-4o", gpt.ModelID)
	require.Equal(t, "OpenAI: GPT-4o", gpt.DisplayName)
	require.True(t, gpt.IsMultimodal)
	require.True(t, gpt.SupportsPDF)
	require.False(t, gpt.IsFree)
	require.Equal(t, 2.5, gpt.InputPricePerMillion)
	require.Equal(t, 10.0, gpt.OutputPricePerMillion)
	require.Equal(t, "medium", gpt.CostBand)
	require.Equal(t, 128000, gpt.ContextLength)

	r1 := models[1]
	require.True(t, r1.IsFree)
	require.True(t, r1.SupportsReasoning)
	require.False(t, r1.IsMultimodal)
	require.False(t, r1.SupportsPDF)
	require.Equal(t, 64000, r1.ContextLength)
	require.Equal(t, "free", r1.CostBand)

	haiku := models[2]
	require.True(t, haiku.IsMultimodal)
	require.True(t, haiku.SupportsPDF)
	require.Equal(t, "low", haiku.CostBand)
}

func TestFetchCatalogFilter(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, catalogJSON)
	})
	c, err := New(Options{BaseURL: srv.URL, ModelFilter: `^(openai|anthropic)/`, HTTPClient: srv.Client()})
	require.NoError(t, err)

	models, err := c.FetchCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)

	_, err = New(Options{ModelFilter: `(`})
	require.Error(t, err)
}

func TestFetchCatalogUpstreamError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"No auth credentials found","code":401}}`)
	})
	c, err := New(Options{BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	_, err = c.FetchCatalog(context.Background())
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	require.Equal(t, http.StatusUnauthorized, ue.Status)
	require.Equal(t, "No auth credentials found", ue.Message)
}

func TestChatCompletionBody(t *testing.T) {
	temp := float32(0.5)
	body, err := ChatCompletion{
		Model: "openai/gpt-4o",
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "be brief"},
			{Role: openai.ChatMessageRoleUser, MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: "what is this"},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: "https://example.com/a.png"}},
			}},
		},
		Files:       []FilePart{{Filename: "a.pdf", Data: "data:application/pdf;base64,JVBE"}},
		Temperature: &temp,
	}.Body()
	require.NoError(t, err)

	doc := gjson.ParseBytes(body)
	require.Equal(t, "openai/gpt-4o", doc.Get("model").String())
	require.True(t, doc.Get("stream").Bool())
	require.True(t, doc.Get("usage.include").Bool())
	require.Equal(t, 0.5, doc.Get("temperature").Float())
	require.Equal(t, "be brief", doc.Get("messages.0.content").String())
	require.Equal(t, int64(3), doc.Get("messages.1.content.#").Int())
	require.Equal(t, "file", doc.Get("messages.1.content.2.type").String())
	require.Equal(t, "a.pdf", doc.Get("messages.1.content.2.file.filename").String())
}

func TestChatCompletionBodyKeepsZeroSampling(t *testing.T) {
	zero := float32(0)
	body, err := ChatCompletion{
		Model:       "openai/gpt-4o",
		Messages:    []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "hi"}},
		Temperature: &zero,
		TopP:        &zero,
	}.Body()
	require.NoError(t, err)

	doc := gjson.ParseBytes(body)
	require.True(t, doc.Get("temperature").Exists())
	require.Zero(t, doc.Get("temperature").Float())
	require.True(t, doc.Get("top_p").Exists())
	require.Zero(t, doc.Get("top_p").Float())

	body, err = ChatCompletion{
		Model:    "openai/gpt-4o",
		Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "hi"}},
	}.Body()
	require.NoError(t, err)
	require.False(t, gjson.GetBytes(body, "temperature").Exists())
	require.False(t, gjson.GetBytes(body, "top_p").Exists())
}

func TestChatCompletionBodyFilesOnPlainMessage(t *testing.T) {
	body, err := ChatCompletion{
		Model:    "anthropic/claude-3.5-sonnet",
		Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "summarize"}},
		Files:    []FilePart{{Filename: "r.pdf", Data: "https://example.com/r.pdf"}},
	}.Body()
	require.NoError(t, err)

	doc := gjson.ParseBytes(body)
	require.Equal(t, "text", doc.Get("messages.0.content.0.type").String())
	require.Equal(t, "summarize", doc.Get("messages.0.content.0.text").String())
	require.Equal(t, "file", doc.Get("messages.0.content.1.type").String())

	_, err = ChatCompletion{Model: "x/y"}.Body()
	require.Error(t, err)
}

func TestStreamChatRequiresKey(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)
	_, err = c.StreamChat(context.Background(), ChatCompletion{})
	require.ErrorIs(t, err, ErrNoAPIKey)
}
