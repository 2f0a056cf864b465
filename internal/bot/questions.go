package bot

import (
	"math/rand"
	"sync"
)

// QuestionBank holds canned ice-breaker questions used as a last resort
// when the backend refuses to produce a question on a forced turn.
type QuestionBank struct {
	mu        sync.Mutex
	rng       *rand.Rand
	questions []string
}

// NewQuestionBank creates a bank over the default ice-breakers.
func NewQuestionBank(rng *rand.Rand) *QuestionBank {
	return &QuestionBank{
		rng: rng,
		questions: []string{
			"Beach or mountains?",
			"Introvert or extrovert?",
			"What do you do?",
			"How's your day?",
			"Music or movies?",
		},
	}
}

// Pick returns a random canned question.
func (b *QuestionBank) Pick() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.questions[b.rng.Intn(len(b.questions))]
}
