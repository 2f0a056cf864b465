package bot

import (
	"strconv"
	"strings"
)

// FallbackReply is returned when a candidate reply is blank after trimming
// input was expected.
const FallbackReply = "Sorry, can you say that again?"

// PromptBuilder renders persona facts, conversation policy, and memory into
// a single generation prompt.
type PromptBuilder struct {
	personas *PersonaAssigner
	memory   *MemoryStore
}

// NewPromptBuilder creates a builder over the given persona and memory
// stores.
func NewPromptBuilder(personas *PersonaAssigner, memory *MemoryStore) *PromptBuilder {
	return &PromptBuilder{personas: personas, memory: memory}
}

// BuildPrompt renders the full generation prompt for one user turn. The
// template is deterministic, one line per element: persona facts, policy
// directives, the conversation so far, the new user turn, and a trailing
// "{Name}:" cue for the model to complete.
func (b *PromptBuilder) BuildPrompt(sessionID, userMessage string, forceQuestion bool, plan Plan) string {
	persona := b.personas.GetOrCreate(sessionID)

	var sb strings.Builder
	line := func(s string) {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(s)
	}

	line("You are " + persona.Name + ", age " + strconv.Itoa(persona.Age) + ", from " + persona.City + ".")
	line("Never contradict these facts.")
	line("Interests: " + strings.Join(persona.Interests, ", ") + ".")
	line("Tone: " + persona.Tone + ".")
	if plan.Mood != "" {
		line("Mood: " + plan.Mood + ".")
	}
	if plan.CuriosityHook {
		line("Show curiosity about the user.")
	}
	line("Reply in 3-4 words only.")
	if forceQuestion {
		line("Make it a short question.")
	}
	line("Conversation so far:")
	for _, entry := range b.memory.GetRecent(sessionID) {
		label := "User"
		if entry.Role == RoleBot {
			label = persona.Name
		}
		line(label + ": " + entry.Content)
	}
	line("User: " + userMessage)
	line(persona.Name + ":")
	return sb.String()
}

// TrimToShortReply collapses a raw model completion into at most maxWords
// whitespace-separated tokens. Blank input yields the fixed fallback phrase.
func TrimToShortReply(reply string, maxWords int) string {
	if strings.TrimSpace(reply) == "" {
		return FallbackReply
	}
	normalized := strings.ReplaceAll(reply, "\n", " ")
	words := strings.Fields(normalized)
	if maxWords < 1 {
		maxWords = 1
	}
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " ")
}
