package availability

import (
	"testing"

	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		req   model.ChatRequest
		class ContentClass
		needs Needs
	}{
		{"plain", model.ChatRequest{Message: "hi"}, ClassText, Needs{}},
		{"legacy image url", model.ChatRequest{ImageURL: "https://x/a.png"}, ClassImage, Needs{Vision: true}},
		{"image attachment", model.ChatRequest{Attachments: []model.Attachment{{Type: model.AttachmentImage, URL: "https://x/a.png"}}}, ClassImage, Needs{Vision: true}},
		{"file with image data url", model.ChatRequest{Attachments: []model.Attachment{{Type: model.AttachmentFile, URL: "data:image/jpeg;base64,AAA"}}}, ClassImage, Needs{Vision: true}},
		{"pdf", model.ChatRequest{Attachments: []model.Attachment{{Type: model.AttachmentFile, URL: "https://x/a.pdf", MimeType: "application/pdf"}}}, ClassPDFOrRAG, Needs{PDF: true}},
		{"rag", model.ChatRequest{DocumentContext: []string{"passage"}}, ClassPDFOrRAG, Needs{}},
		{"blank rag", model.ChatRequest{DocumentContext: []string{"  "}}, ClassText, Needs{}},
		{"image beats pdf", model.ChatRequest{ImageURL: "https://x/a.png", Attachments: []model.Attachment{{Type: model.AttachmentFile, URL: "https://x/a.pdf"}}}, ClassImage, Needs{Vision: true, PDF: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			class, needs := Classify(tc.req)
			require.Equal(t, tc.class, class)
			require.Equal(t, tc.needs, needs)
		})
	}
}

func TestCompatible(t *testing.T) {
	text := model.ModelDescriptor{}
	vision := model.ModelDescriptor{IsMultimodal: true}
	full := model.ModelDescriptor{IsMultimodal: true, SupportsPDF: true}

	require.True(t, Compatible(text, Needs{}))
	require.False(t, Compatible(text, Needs{Vision: true}))
	require.True(t, Compatible(vision, Needs{Vision: true}))
	require.False(t, Compatible(vision, Needs{PDF: true}))
	require.True(t, Compatible(full, Needs{Vision: true, PDF: true}))
}
