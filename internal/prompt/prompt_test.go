package prompt

import (
	"strings"
	"testing"
)

func TestStyle_ClampsAndDiffers(t *testing.T) {
	t.Parallel()

	if Style(-5) != Style(0) {
		t.Error("Style(-5) should clamp to level 0")
	}
	if Style(42) != Style(MaxIntensity) {
		t.Error("Style(42) should clamp to MaxIntensity")
	}
	seen := make(map[string]int)
	for level := 0; level <= MaxIntensity; level++ {
		s := Style(level)
		if s == "" {
			t.Fatalf("Style(%d) is empty", level)
		}
		if prev, ok := seen[s]; ok {
			t.Errorf("Style(%d) duplicates Style(%d)", level, prev)
		}
		seen[s] = level
	}
}

func TestDigest_Prompt(t *testing.T) {
	t.Parallel()

	d := Digest{Level: 3, MaxTopics: 7, Language: "Ukrainian"}
	window := "[10:00] Alice (uid=1, mid=2): hi"
	got := d.Prompt(window)

	for _, want := range []string{"2-7 topics", "in Ukrainian", Style(3), "short_title", window} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.HasPrefix(got, d.Instructions()) {
		t.Error("prompt should start with the static instructions")
	}
}

func TestReply_Instructions(t *testing.T) {
	t.Parallel()

	r := Reply{
		Level:    0,
		Asker:    "Bob",
		Question: "what now?",
		Thread:   []string{"first line", "second line"},
	}
	got := r.Instructions()

	for _, want := range []string{`{"response": "..."}`, "first line\nsecond line", "Message from Bob:\nwhat now?"} {
		if !strings.Contains(got, want) {
			t.Errorf("instructions missing %q", want)
		}
	}
	if strings.Contains(got, "Write the reply in") {
		t.Error("no language line expected without a language")
	}
	if r.Prompt("") != got {
		t.Error("Prompt with an empty window should equal Instructions")
	}
	if !strings.HasSuffix(r.Prompt("ctx line"), "ctx line") {
		t.Error("Prompt should end with the window")
	}
}
