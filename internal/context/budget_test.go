package ctxengine_test

import (
	"testing"

	ctxengine "github.com/flemzord/chatdigest/internal/context"
)

// Compile-time interface guards.
var (
	_ ctxengine.TokenCounter = (*ctxengine.CharEstimator)(nil)
	_ ctxengine.TokenCounter = (*ctxengine.TiktokenCounter)(nil)
)

func TestNewCharEstimator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		charsPerToken float64
		wantRatio     float64
	}{
		{name: "valid_ratio", charsPerToken: 3.0, wantRatio: 3.0},
		{name: "zero_defaults_to_4", charsPerToken: 0, wantRatio: 4.0},
		{name: "negative_defaults_to_4", charsPerToken: -1.5, wantRatio: 4.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			est := ctxengine.NewCharEstimator(tt.charsPerToken)
			if est.CharsPerToken != tt.wantRatio {
				t.Errorf("NewCharEstimator(%v).CharsPerToken = %v, want %v",
					tt.charsPerToken, est.CharsPerToken, tt.wantRatio)
			}
		})
	}
}

func TestCharEstimator_Count(t *testing.T) {
	t.Parallel()

	est := ctxengine.NewCharEstimator(4)
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 2},
		{"abcdefgh", 3},
	}
	for _, tt := range tests {
		if got := est.Count(tt.input); got != tt.want {
			t.Errorf("Count(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestBudget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		max, overhead, want int
	}{
		{100, 30, 70},
		{100, 100, 0},
		{100, 130, 0},
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := ctxengine.Budget(tt.max, tt.overhead); got != tt.want {
			t.Errorf("Budget(%d, %d) = %d, want %d", tt.max, tt.overhead, got, tt.want)
		}
	}
}

func TestPromptCost_JoinsWithBlankLines(t *testing.T) {
	t.Parallel()

	if got := ctxengine.PromptCost(wordCounter{}, "one two", "three"); got != 3 {
		t.Errorf("PromptCost = %d, want 3", got)
	}
}

func TestTiktokenCounter(t *testing.T) {
	t.Parallel()

	c, err := ctxengine.NewTiktokenCounter("")
	if err != nil {
		t.Fatalf("NewTiktokenCounter: %v", err)
	}
	if c.Encoding() != ctxengine.DefaultEncoding {
		t.Errorf("Encoding() = %q, want %q", c.Encoding(), ctxengine.DefaultEncoding)
	}
	if got := c.Count(""); got != 0 {
		t.Errorf("Count(\"\") = %d, want 0", got)
	}
	if got := c.Count("hello world"); got != 2 {
		t.Errorf("Count(hello world) = %d, want 2", got)
	}
	long := c.Count("Пан бот, поясни будь ласка що тут відбувається")
	if long <= 0 {
		t.Errorf("Count(cyrillic) = %d, want > 0", long)
	}
}

func TestNewCounter_FallsBackOnUnknownEncoding(t *testing.T) {
	t.Parallel()

	c := ctxengine.NewCounter("no_such_encoding", nil)
	if _, ok := c.(*ctxengine.CharEstimator); !ok {
		t.Errorf("NewCounter(unknown) = %T, want *CharEstimator", c)
	}
}
