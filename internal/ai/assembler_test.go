package ai

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"mochi-server/internal/model"
)

func TestAssembleOrdersPersonaHistoryThenUser(t *testing.T) {
	persona := &model.Persona{ID: "mochi", Name: "Mochi", Tag: "The Listener", Description: "A calm listener.", Tone: "Gentle"}
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	history := []model.Message{
		{Role: model.RoleUser, Content: "hi", Timestamp: ts},
		{Role: model.RoleModel, Content: "hello, friend", Timestamp: ts.Add(time.Second)},
	}

	got := Assemble(persona, history, "I had a rough day")

	want := ModelRequest{Messages: []ContextMessage{
		{Role: RoleSystem, Content: BuildPersonaPrompt(persona)},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleModel, Content: "hello, friend"},
		{Role: RoleUser, Content: "I had a rough day"},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Assemble mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembleNewSessionHasFramingAndUserOnly(t *testing.T) {
	persona := &model.Persona{ID: "mochi", Name: "Mochi", Tone: "Gentle"}

	got := Assemble(persona, nil, "Hello there")

	if len(got.Messages) != 2 {
		t.Fatalf("expected 2 context messages, got %d", len(got.Messages))
	}
	system, turns := got.System()
	if !strings.Contains(system, "Mochi") {
		t.Fatalf("system framing does not name the persona: %q", system)
	}
	if diff := cmp.Diff([]ContextMessage{{Role: RoleUser, Content: "Hello there"}}, turns); diff != "" {
		t.Fatalf("turns mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembleDoesNotMutateInputs(t *testing.T) {
	persona := &model.Persona{Name: "Pip", ForbiddenTopics: []string{"cats"}}
	history := make([]model.Message, 1, 4)
	history[0] = model.Message{Role: model.RoleUser, Content: "hi"}
	personaBefore := *persona
	historyBefore := append([]model.Message(nil), history...)

	_ = Assemble(persona, history, "again")

	if diff := cmp.Diff(personaBefore, *persona); diff != "" {
		t.Fatalf("persona mutated:\n%s", diff)
	}
	if diff := cmp.Diff(historyBefore, history); diff != "" {
		t.Fatalf("history mutated:\n%s", diff)
	}
	if extra := history[:cap(history)][1]; extra.Content != "" {
		t.Fatalf("history backing array written: %+v", extra)
	}
}

func TestBuildPersonaPromptIncludesOptionalFields(t *testing.T) {
	persona := &model.Persona{
		Name:            "Pip",
		Description:     "A cheerful sparrow.",
		Tone:            "Chirpy",
		Greeting:        "Tweet!",
		Relationship:    "old friend",
		ForbiddenTopics: []string{"cats", "storms"},
	}

	prompt := BuildPersonaPrompt(persona)

	for _, want := range []string{"Pip", "A cheerful sparrow.", "Chirpy", "Tweet!", "old friend", "cats, storms"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}

	bare := BuildPersonaPrompt(&model.Persona{Name: "Plain"})
	for _, absent := range []string{"Greeting", "Relationship", "Never discuss"} {
		if strings.Contains(bare, absent) {
			t.Errorf("bare prompt unexpectedly contains %q:\n%s", absent, bare)
		}
	}
}
