package relay

import (
	"context"
	"fmt"
	"strings"

	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/openrouter"
	"github.com/gloriamundo/gloriamundo/internal/utils/log"
	"github.com/gloriamundo/gloriamundo/internal/utils/xurl"
	"github.com/sashabaranov/go-openai"
)

const documentPreamble = "Answer using the following document excerpts when they are relevant. Cite them by number."

// buildCompletion assembles the upstream request. The second return value is
// the plain prompt text, used for token estimates.
func (r *Relay) buildCompletion(ctx context.Context, who model.Identity, req model.ChatRequest, selected string, stored []model.Message) (openrouter.ChatCompletion, string) {
	settings := model.DefaultChatSettings(0)
	if !who.Anonymous() {
		s, err := r.store.ChatSettings(ctx, who.UserID)
		if err != nil {
			log.Warnf("failed to load chat settings for user %d: %v", who.UserID, err)
		} else {
			settings = s
		}
	}

	chat := openrouter.ChatCompletion{
		Model:       selected,
		Temperature: settings.Temperature,
		TopP:        settings.TopP,
		MaxTokens:   settings.MaxTokens,
	}
	var prompt strings.Builder
	add := func(role, content string) {
		chat.Messages = append(chat.Messages, openai.ChatCompletionMessage{Role: role, Content: content})
		prompt.WriteString(content)
		prompt.WriteString("\n")
	}

	if s := strings.TrimSpace(settings.SystemPrompt); s != "" {
		add(openai.ChatMessageRoleSystem, s)
	}
	if docs := documentContext(req.DocumentContext); docs != "" {
		add(openai.ChatMessageRoleSystem, docs)
	}

	if len(req.History) > 0 {
		history := req.History
		if len(history) > r.historyLimit {
			history = history[len(history)-r.historyLimit:]
		}
		for _, h := range history {
			if role, ok := upstreamRole(h.Role); ok && h.Content != "" {
				add(role, h.Content)
			}
		}
	} else {
		for _, m := range stored {
			if role, ok := upstreamRole(m.Role); ok && m.Content != "" {
				add(role, m.Content)
			}
		}
	}

	current := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Message}
	prompt.WriteString(req.Message)
	if images := imageURLs(req); len(images) > 0 {
		current.Content = ""
		if req.Message != "" {
			current.MultiContent = append(current.MultiContent, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: req.Message})
		}
		for _, u := range images {
			current.MultiContent = append(current.MultiContent, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: u, Detail: openai.ImageURLDetailAuto},
			})
		}
	}
	chat.Messages = append(chat.Messages, current)

	for i, a := range req.Attachments {
		if a.Type != model.AttachmentFile || isImageAttachment(a) {
			continue
		}
		name := a.Filename
		if name == "" {
			name = fmt.Sprintf("document-%d.pdf", i+1)
		}
		chat.Files = append(chat.Files, openrouter.FilePart{Filename: name, Data: a.URL})
	}
	return chat, prompt.String()
}

func upstreamRole(r model.Role) (string, bool) {
	switch r {
	case model.RoleUser:
		return openai.ChatMessageRoleUser, true
	case model.RoleAssistant:
		return openai.ChatMessageRoleAssistant, true
	case model.RoleSystem:
		return openai.ChatMessageRoleSystem, true
	}
	return "", false
}

func documentContext(passages []string) string {
	var b strings.Builder
	n := 0
	for _, p := range passages {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n++
		if n == 1 {
			b.WriteString(documentPreamble)
		}
		fmt.Fprintf(&b, "\n\n[%d] %s", n, p)
	}
	return b.String()
}

func imageURLs(req model.ChatRequest) []string {
	var out []string
	if req.ImageURL != "" {
		out = append(out, req.ImageURL)
	}
	for _, a := range req.Attachments {
		if a.URL != "" && (a.Type == model.AttachmentImage || isImageAttachment(a)) {
			out = append(out, a.URL)
		}
	}
	return out
}

func isImageAttachment(a model.Attachment) bool {
	if strings.HasPrefix(strings.ToLower(a.MimeType), "image/") {
		return true
	}
	return strings.HasPrefix(xurl.MediaType(a.URL), "image/")
}
