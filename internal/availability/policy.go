package availability

import (
	"sync"

	"github.com/gloriamundo/gloriamundo/internal/utils/xstrings"
	"github.com/samber/lo"
)

// Policy holds the ordered fallback candidates per content class. It is
// safe to swap while requests are resolving.
type Policy struct {
	mu    sync.RWMutex
	lists map[ContentClass][]string
}

func NewPolicy(image, pdfOrRAG, text []string) *Policy {
	p := &Policy{}
	p.Update(image, pdfOrRAG, text)
	return p
}

func (p *Policy) Update(image, pdfOrRAG, text []string) {
	lists := map[ContentClass][]string{
		ClassImage:    lo.Uniq(xstrings.Compact(image)),
		ClassPDFOrRAG: lo.Uniq(xstrings.Compact(pdfOrRAG)),
		ClassText:     lo.Uniq(xstrings.Compact(text)),
	}
	p.mu.Lock()
	p.lists = lists
	p.mu.Unlock()
}

func (p *Policy) List(class ContentClass) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	list, ok := p.lists[class]
	if !ok {
		list = p.lists[ClassText]
	}
	return append([]string(nil), list...)
}
