package api

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/srt/randomchat/internal/bot"
	"github.com/srt/randomchat/internal/domain"
	"github.com/srt/randomchat/internal/match"
)

func newTestHandler() (*Handler, *match.Engine) {
	engine := match.NewEngine()
	personas := bot.NewPersonaAssigner(bot.DefaultCatalog(), rand.New(rand.NewSource(1)))
	svc := bot.NewService(bot.ServiceConfig{Enabled: false, MaxWords: 4, Workers: 1},
		nil, personas, bot.NewMemoryStore(12), bot.NewPolicyTracker(2), bot.NewPlanner(),
		bot.NewQuestionBank(rand.New(rand.NewSource(2))))
	return NewHandler(engine, svc), engine
}

func TestHealth(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler()
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestInfoReportsStats(t *testing.T) {
	t.Parallel()

	h, engine := newTestHandler()
	engine.Register("a", domain.GenderMale, domain.PreferenceFemale)
	engine.RequestMatch("a")

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/info", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		App         string `json:"app"`
		Registered  int    `json:"registered"`
		Waiting     int    `json:"waiting"`
		ActiveRooms int    `json:"activeRooms"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.App != "randomchat" || body.Registered != 1 || body.Waiting != 1 || body.ActiveRooms != 0 {
		t.Fatalf("unexpected stats: %+v", body)
	}
}

func TestAITestWhenBotDisabled(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler()
	rec := httptest.NewRecorder()
	h.AITest(rec, httptest.NewRequest(http.MethodGet, "/api/ai-test", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for disabled bot, got %d", rec.Code)
	}
}
