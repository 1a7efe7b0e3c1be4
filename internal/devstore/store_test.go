package devstore

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/HendryAvila/crewgate/internal/specstore"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "devstore.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return s
}

func TestStore_PersonaRoundTrip(t *testing.T) {
	s := openTestStore(t)

	persona := specstore.PersonaSpec{
		ID:   "writer",
		Name: "Technical Writer",
		Tags: []string{"docs"},
		Specification: specstore.PersonaDetails{
			Mission: "Draft clear prose",
			Inputs:  []string{"topic"},
		},
	}
	if err := s.PutPersona(persona); err != nil {
		t.Fatalf("put persona: %v", err)
	}

	got, err := s.GetPersona("writer")
	if err != nil {
		t.Fatalf("get persona: %v", err)
	}
	if got.Name != persona.Name || got.Specification.Mission != persona.Specification.Mission {
		t.Errorf("persona = %+v, want %+v", got, persona)
	}

	all, err := s.ListPersonas()
	if err != nil {
		t.Fatalf("list personas: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("personas = %d, want 1", len(all))
	}
}

func TestStore_ListOrderedByID(t *testing.T) {
	s := openTestStore(t)

	for _, id := range []string{"zeta", "alpha", "mid"} {
		if err := s.PutWorkflow(specstore.WorkflowDefinition{ID: id}); err != nil {
			t.Fatalf("put workflow %s: %v", id, err)
		}
	}

	all, err := s.ListWorkflows()
	if err != nil {
		t.Fatalf("list workflows: %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	for i, id := range want {
		if all[i].ID != id {
			t.Errorf("workflows[%d] = %s, want %s", i, all[i].ID, id)
		}
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.GetProject("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := s.UpdateProject("ghost", map[string]any{"name": "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update err = %v, want ErrNotFound", err)
	}
}

func TestStore_PutReplaces(t *testing.T) {
	s := openTestStore(t)

	if err := s.PutPersona(specstore.PersonaSpec{ID: "writer", Name: "First"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.PutPersona(specstore.PersonaSpec{ID: "writer", Name: "Second"}); err != nil {
		t.Fatalf("put replacement: %v", err)
	}

	got, err := s.GetPersona("writer")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Second" {
		t.Errorf("name = %s, want Second", got.Name)
	}
}

func TestStore_UpdateProjectMergesFields(t *testing.T) {
	s := openTestStore(t)

	if err := s.PutProject(specstore.Project{
		ID: "proj1", Name: "Original", Status: "active",
		Epics: []specstore.Epic{{ID: "e1", Title: "Launch"}},
	}); err != nil {
		t.Fatalf("put project: %v", err)
	}

	updated, err := s.UpdateProject("proj1", map[string]any{"name": "Renamed"})
	if err != nil {
		t.Fatalf("update project: %v", err)
	}

	if updated.Name != "Renamed" {
		t.Errorf("name = %s, want Renamed", updated.Name)
	}
	// Untouched fields survive the merge.
	if updated.Status != "active" {
		t.Errorf("status = %s, want active", updated.Status)
	}
	if len(updated.Epics) != 1 || updated.Epics[0].ID != "e1" {
		t.Errorf("epics = %+v, merge dropped them", updated.Epics)
	}
	if updated.UpdatedAt == "" {
		t.Errorf("updatedAt not stamped")
	}
}

func TestStore_UpdateProjectIgnoresID(t *testing.T) {
	s := openTestStore(t)

	if err := s.PutProject(specstore.Project{ID: "proj1", Name: "P"}); err != nil {
		t.Fatalf("put project: %v", err)
	}

	updated, err := s.UpdateProject("proj1", map[string]any{"id": "hijacked", "name": "P2"})
	if err != nil {
		t.Fatalf("update project: %v", err)
	}
	if updated.ID != "proj1" {
		t.Errorf("id = %s, the id field must be immutable", updated.ID)
	}
}
