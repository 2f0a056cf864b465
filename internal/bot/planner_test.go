package bot

import "testing"

func TestPlannerMoodLadder(t *testing.T) {
	t.Parallel()

	p := NewPlanner()
	moods := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		plan := p.PlanFor("s", "tell me something interesting", 0)
		moods = append(moods, plan.Mood)
	}

	want := []string{
		"casual", "casual", "casual",
		"playful", "playful",
		"personal", "personal", "personal",
		"deep", "deep",
	}
	for i, m := range want {
		if moods[i] != m {
			t.Fatalf("message %d: expected mood %q, got %q", i+1, m, moods[i])
		}
	}
}

func TestPlannerForcesQuestionOnShortMessage(t *testing.T) {
	t.Parallel()

	p := NewPlanner()
	if !p.PlanFor("s", "hi", 0).ForceQuestion {
		t.Fatal("short message must force a question")
	}
	if p.PlanFor("s", "that is a much longer message", 0).ForceQuestion {
		t.Fatal("long message with no streak should not force")
	}
	if !p.PlanFor("s", "that is a much longer message", 2).ForceQuestion {
		t.Fatal("streak of 2 must force")
	}
}

func TestPlannerCuriosityHook(t *testing.T) {
	t.Parallel()

	p := NewPlanner()
	for i := 0; i < 6; i++ {
		if plan := p.PlanFor("s", "tell me something interesting", 0); plan.CuriosityHook {
			t.Fatalf("hook too early at message %d", i+1)
		}
	}
	if plan := p.PlanFor("s", "tell me something interesting", 0); !plan.CuriosityHook {
		t.Fatal("expected curiosity hook after 6 messages")
	}
}

func TestPlannerClearResetsArc(t *testing.T) {
	t.Parallel()

	p := NewPlanner()
	for i := 0; i < 9; i++ {
		p.PlanFor("s", "message", 0)
	}
	p.Clear("s")
	if plan := p.PlanFor("s", "long enough message here", 0); plan.Mood != "casual" {
		t.Fatalf("expected fresh arc after clear, got mood %q", plan.Mood)
	}
}
