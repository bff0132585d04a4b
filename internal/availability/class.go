package availability

import (
	"strings"

	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/utils/xurl"
)

type ContentClass string

const (
	ClassImage    ContentClass = "image"
	ClassPDFOrRAG ContentClass = "pdf_or_rag"
	ClassText     ContentClass = "text"
)

// Needs is what the request asks of the model beyond plain text.
type Needs struct {
	Vision bool
	PDF    bool
}

// Classify picks the content class of a request. Images win over documents,
// documents over plain text.
func Classify(req model.ChatRequest) (ContentClass, Needs) {
	var needs Needs
	if req.ImageURL != "" {
		needs.Vision = true
	}
	for _, a := range req.Attachments {
		switch {
		case a.Type == model.AttachmentImage, isImage(a):
			needs.Vision = true
		case a.Type == model.AttachmentFile:
			needs.PDF = true
		}
	}
	switch {
	case needs.Vision:
		return ClassImage, needs
	case needs.PDF, len(nonEmpty(req.DocumentContext)) > 0:
		return ClassPDFOrRAG, needs
	default:
		return ClassText, needs
	}
}

func isImage(a model.Attachment) bool {
	if strings.HasPrefix(strings.ToLower(a.MimeType), "image/") {
		return true
	}
	return strings.HasPrefix(xurl.MediaType(a.URL), "image/")
}

func nonEmpty(list []string) []string {
	out := list[:0:0]
	for _, s := range list {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// Compatible reports whether d can take content with needs.
func Compatible(d model.ModelDescriptor, needs Needs) bool {
	if needs.Vision && !d.IsMultimodal {
		return false
	}
	if needs.PDF && !d.SupportsPDF {
		return false
	}
	return true
}
