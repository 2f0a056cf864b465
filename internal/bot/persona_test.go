package bot

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func TestPersonaStablePerSession(t *testing.T) {
	t.Parallel()

	a := NewPersonaAssigner(DefaultCatalog(), rand.New(rand.NewSource(1)))
	first := a.GetOrCreate("s")
	for i := 0; i < 20; i++ {
		if got := a.GetOrCreate("s"); got.Name != first.Name {
			t.Fatalf("persona changed mid-session: %q -> %q", first.Name, got.Name)
		}
	}
}

func TestPersonaClearAllowsReassignment(t *testing.T) {
	t.Parallel()

	// With a single-entry catalog the reassigned persona is predictable.
	catalog := []Persona{{Name: "Meera", Age: 22, City: "Bangalore", Interests: []string{"music"}, Tone: "friendly"}}
	a := NewPersonaAssigner(catalog, rand.New(rand.NewSource(1)))

	a.GetOrCreate("s")
	a.Clear("s")
	if got := a.GetOrCreate("s"); got.Name != "Meera" {
		t.Fatalf("unexpected persona %q", got.Name)
	}
}

func TestPersonaPickIsSeedDeterministic(t *testing.T) {
	t.Parallel()

	a := NewPersonaAssigner(DefaultCatalog(), rand.New(rand.NewSource(42)))
	b := NewPersonaAssigner(DefaultCatalog(), rand.New(rand.NewSource(42)))
	for i := 0; i < 10; i++ {
		session := "s" + string(rune('a'+i))
		if a.GetOrCreate(session).Name != b.GetOrCreate(session).Name {
			t.Fatal("same seed must produce the same assignment sequence")
		}
	}
}

func TestLoadCatalog(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "personas.yaml")
	data := `
- name: Lena
  age: 25
  city: Berlin
  interests: [techno, cycling]
  tone: dry, witty
- name: Sofia
  age: 27
  city: Lisbon
  interests: [surf, wine]
  tone: sunny
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if len(catalog) != 2 {
		t.Fatalf("expected 2 personas, got %d", len(catalog))
	}
	if catalog[0].Name != "Lena" || catalog[0].Age != 25 || len(catalog[0].Interests) != 2 {
		t.Fatalf("unexpected first persona: %+v", catalog[0])
	}
}

func TestLoadCatalogRejectsEmptyAndNameless(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("[]\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadCatalog(empty); err == nil {
		t.Fatal("expected error for empty catalog")
	}

	nameless := filepath.Join(dir, "nameless.yaml")
	if err := os.WriteFile(nameless, []byte("- age: 20\n  city: Oslo\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadCatalog(nameless); err == nil {
		t.Fatal("expected error for nameless persona")
	}

	if _, err := LoadCatalog(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
