package tokenizer

import (
	"sync"

	"github.com/tiktoken-go/tokenizer/codec"
)

var (
	once sync.Once
	enc  *codec.Codec
)

// CountTokens estimates the token count of content with the o200k encoding.
// It is used only when upstream does not report usage.
func CountTokens(content string) int {
	if content == "" {
		return 0
	}
	once.Do(func() { enc = codec.NewO200kBase() })
	n, err := enc.Count(content)
	if err != nil {
		return 0
	}
	return n
}
