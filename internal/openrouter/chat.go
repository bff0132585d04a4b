package openrouter

import (
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/sjson"
)

// FilePart is a document attached to the last message, sent as an
// OpenRouter "file" content part.
type FilePart struct {
	Filename string
	Data     string // data URL or https URL
}

type ChatCompletion struct {
	Model       string
	Messages    []openai.ChatCompletionMessage
	Files       []FilePart
	Temperature *float32
	TopP        *float32
	MaxTokens   *int
}

// Body encodes the request with streaming on and usage accounting requested.
func (r ChatCompletion) Body() ([]byte, error) {
	if len(r.Messages) == 0 {
		return nil, fmt.Errorf("chat completion has no messages")
	}
	req := openai.ChatCompletionRequest{
		Model:    r.Model,
		Messages: r.Messages,
		Stream:   true,
	}
	if r.MaxTokens != nil {
		req.MaxTokens = *r.MaxTokens
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	if body, err = sjson.SetBytes(body, "usage.include", true); err != nil {
		return nil, err
	}
	// zero is a valid sampling value, so these bypass omitempty
	if r.Temperature != nil {
		if body, err = sjson.SetBytes(body, "temperature", *r.Temperature); err != nil {
			return nil, err
		}
	}
	if r.TopP != nil {
		if body, err = sjson.SetBytes(body, "top_p", *r.TopP); err != nil {
			return nil, err
		}
	}

	if len(r.Files) == 0 {
		return body, nil
	}
	last := len(r.Messages) - 1
	if len(r.Messages[last].MultiContent) == 0 {
		parts := []openai.ChatMessagePart{}
		if r.Messages[last].Content != "" {
			parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: r.Messages[last].Content})
		}
		raw, err := json.Marshal(parts)
		if err != nil {
			return nil, err
		}
		if body, err = sjson.SetRawBytes(body, fmt.Sprintf("messages.%d.content", last), raw); err != nil {
			return nil, err
		}
	}
	path := fmt.Sprintf("messages.%d.content.-1", last)
	for _, f := range r.Files {
		part, err := json.Marshal(map[string]any{
			"type": "file",
			"file": map[string]string{"filename": f.Filename, "file_data": f.Data},
		})
		if err != nil {
			return nil, err
		}
		if body, err = sjson.SetRawBytes(body, path, part); err != nil {
			return nil, err
		}
	}
	return body, nil
}
