package summarize

import (
	"sync"
	"unicode/utf8"

	"github.com/tiktoken-go/tokenizer"
)

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
)

// CountTokens returns the cl100k_base token count of text. If the
// encoding cannot be loaded it falls back to a four-characters-per-token
// estimate.
func CountTokens(text string) int {
	codecOnce.Do(func() {
		c, err := tokenizer.Get(tokenizer.Cl100kBase)
		if err == nil {
			codec = c
		}
	})
	if codec == nil {
		return (utf8.RuneCountInString(text) + 3) / 4
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return (utf8.RuneCountInString(text) + 3) / 4
	}
	return len(ids)
}
