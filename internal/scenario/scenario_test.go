package scenario

import (
	"strings"
	"testing"
)

func TestCatalogHasSixScenarios(t *testing.T) {
	scenarios := Catalog()
	if len(scenarios) != 6 {
		t.Fatalf("Expected 6 scenarios, got %d", len(scenarios))
	}
	for _, s := range scenarios {
		if s.Name == "" || s.Role == "" || s.SystemInstruction == "" {
			t.Errorf("Scenario %q missing required fields", s.Name)
		}
		if len(s.Vocabulary) == 0 || len(s.ExamplePhrases) == 0 {
			t.Errorf("Scenario %q has empty vocabulary or phrases", s.Name)
		}
		if !strings.Contains(s.SystemInstruction, "provideAccentFeedback") {
			t.Errorf("Scenario %q instruction does not mention the feedback tool", s.Name)
		}
	}
}

func TestLookupMatchesBySubstring(t *testing.T) {
	s, ok := Lookup("Coffee Shop Scenario")
	if !ok {
		t.Fatal("Expected match for coffee shop context")
	}
	if s.Role != "Barista" {
		t.Errorf("Expected Barista, got %q", s.Role)
	}

	if _, ok := Lookup("Underwater Basket Weaving"); ok {
		t.Error("Expected no match for unknown context")
	}
}

func TestLookupApostropheName(t *testing.T) {
	s, ok := Lookup("Practice at the Doctor's Office today")
	if !ok {
		t.Fatal("Expected match for doctor's office context")
	}
	if s.Role != "Doctor" {
		t.Errorf("Expected Doctor, got %q", s.Role)
	}
}

func TestSystemInstructionFallback(t *testing.T) {
	instruction := SystemInstruction("A walk in the park")
	if !strings.Contains(instruction, "A walk in the park") {
		t.Error("Expected fallback instruction to embed the context")
	}
	if !strings.Contains(instruction, "conversation partner") {
		t.Errorf("Unexpected fallback instruction: %q", instruction)
	}
}

func TestGeneralInstruction(t *testing.T) {
	got := GeneralInstruction("ordering pizza")
	if !strings.Contains(got, "Topic: ordering pizza") {
		t.Error("Expected topic embedded in general instruction")
	}
	if !strings.Contains(GeneralInstruction(""), "Topic: a general chat") {
		t.Error("Expected default topic for empty context")
	}
}

func TestCatalogReturnsCopy(t *testing.T) {
	first := Catalog()
	first[0].Name = "mutated"
	if Catalog()[0].Name == "mutated" {
		t.Error("Expected catalog to be isolated from caller mutation")
	}
}
