package summarizer

import (
	"sync"
	"unicode/utf8"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

const (
	// encodingName is the BPE encoding used for token counting.
	encodingName = "cl100k_base"

	// charsPerToken is the estimate used when the encoder is unavailable.
	charsPerToken = 4
)

// TokenCounter counts prompt tokens and enforces token budgets. It loads the
// tiktoken encoding lazily on first use; when loading fails (the BPE ranks
// are fetched over the network on cold caches) it degrades to a
// characters-per-token estimate rather than blocking the pipeline.
type TokenCounter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewTokenCounter returns a ready-to-use counter.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{}
}

func (tc *TokenCounter) encoder() *tiktoken.Tiktoken {
	tc.once.Do(func() {
		enc, err := tiktoken.GetEncoding(encodingName)
		if err != nil {
			return
		}
		tc.enc = enc
	})
	return tc.enc
}

// Count returns the token count of text.
func (tc *TokenCounter) Count(text string) int {
	if enc := tc.encoder(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// Truncate cuts text down to at most budget tokens. A budget of zero or less
// leaves the text untouched.
func (tc *TokenCounter) Truncate(text string, budget int) string {
	if budget <= 0 {
		return text
	}

	if enc := tc.encoder(); enc != nil {
		ids := enc.Encode(text, nil, nil)
		if len(ids) <= budget {
			return text
		}
		return enc.Decode(ids[:budget])
	}

	limit := budget * charsPerToken
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
