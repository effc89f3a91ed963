package ctxengine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktokenloader "github.com/pkoukk/tiktoken-go-loader"
)

// DefaultEncoding is used when no encoding is configured.
const DefaultEncoding = "cl100k_base"

var loaderOnce sync.Once

// TiktokenCounter counts tokens with a BPE encoding. The ranks are loaded
// from the embedded offline loader, so construction needs no network.
type TiktokenCounter struct {
	encoding string
	enc      *tiktoken.Tiktoken
}

// Compile-time interface check.
var _ TokenCounter = (*TiktokenCounter)(nil)

// NewTiktokenCounter loads the named encoding ("cl100k_base", "o200k_base").
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktokenloader.NewOfflineLoader())
	})

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("ctxengine: load encoding %q: %w", encoding, err)
	}
	return &TiktokenCounter{encoding: encoding, enc: enc}, nil
}

// Count returns the number of BPE tokens in text. Special-token markers in
// user text are encoded as ordinary text.
func (c *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}

// Encoding returns the encoding name.
func (c *TiktokenCounter) Encoding() string {
	return c.encoding
}

// NewCounter returns a TiktokenCounter for encoding, or a CharEstimator when
// the encoding cannot be loaded. The fallback is logged.
func NewCounter(encoding string, logger *slog.Logger) TokenCounter {
	c, err := NewTiktokenCounter(encoding)
	if err == nil {
		return c
	}
	if logger != nil {
		logger.Warn("token counter: falling back to character estimate",
			"encoding", encoding,
			"error", err,
		)
	}
	return NewCharEstimator(0)
}
