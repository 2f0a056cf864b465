package bot

import (
	"math/rand"
	"strings"
	"testing"
)

func newTestPromptBuilder() (*PromptBuilder, *MemoryStore) {
	catalog := []Persona{{
		Name:      "Meera",
		Age:       22,
		City:      "Bangalore",
		Interests: []string{"music", "travel"},
		Tone:      "friendly, casual",
	}}
	personas := NewPersonaAssigner(catalog, rand.New(rand.NewSource(1)))
	memory := NewMemoryStore(12)
	return NewPromptBuilder(personas, memory), memory
}

func TestBuildPromptTemplateOrder(t *testing.T) {
	t.Parallel()

	b, memory := newTestPromptBuilder()
	memory.Append("s", RoleUser, "hi")
	memory.Append("s", RoleBot, "hey there")

	prompt := b.BuildPrompt("s", "what do you do?", false, Plan{Mood: "casual"})
	lines := strings.Split(prompt, "\n")

	want := []string{
		"You are Meera, age 22, from Bangalore.",
		"Never contradict these facts.",
		"Interests: music, travel.",
		"Tone: friendly, casual.",
		"Mood: casual.",
		"Reply in 3-4 words only.",
		"Conversation so far:",
		"User: hi",
		"Meera: hey there",
		"User: what do you do?",
		"Meera:",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d:\n%s", len(want), len(lines), prompt)
	}
	for i, w := range want {
		if lines[i] != w {
			t.Fatalf("line %d: expected %q, got %q", i, w, lines[i])
		}
	}
}

func TestBuildPromptDirectives(t *testing.T) {
	t.Parallel()

	b, _ := newTestPromptBuilder()

	prompt := b.BuildPrompt("s", "hi", true, Plan{Mood: "deep", CuriosityHook: true})
	if !strings.Contains(prompt, "Make it a short question.") {
		t.Fatal("expected question directive")
	}
	if !strings.Contains(prompt, "Mood: deep.") {
		t.Fatal("expected mood directive")
	}
	if !strings.Contains(prompt, "Show curiosity about the user.") {
		t.Fatal("expected curiosity directive")
	}

	plain := b.BuildPrompt("s", "hi", false, Plan{})
	if strings.Contains(plain, "Make it a short question.") {
		t.Fatal("unexpected question directive")
	}
	if strings.Contains(plain, "Mood:") {
		t.Fatal("unexpected mood directive")
	}
}

func TestTrimToShortReply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       string
		maxWords int
		want     string
	}{
		{"trims long reply", "hello there how are you doing", 4, "hello there how are you"},
		{"keeps short reply", "hi there", 4, "hi there"},
		{"blank input", "   ", 4, FallbackReply},
		{"empty input", "", 4, FallbackReply},
		{"collapses newlines", "hello\nthere\nfriend", 4, "hello there friend"},
		{"zero max clamps to one", "one two three", 0, "one"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TrimToShortReply(tt.in, tt.maxWords); got != tt.want {
				t.Fatalf("TrimToShortReply(%q, %d) = %q, want %q", tt.in, tt.maxWords, got, tt.want)
			}
		})
	}
}
