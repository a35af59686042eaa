package openai

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestGenerateSchemaDisallowsExtraFields(t *testing.T) {
	raw, err := json.Marshal(GenerateSchema[AgentResponse]())
	if err != nil {
		t.Fatalf("Failed to marshal schema: %v", err)
	}
	schema := string(raw)

	for _, want := range []string{`"station_name"`, `"user_message"`, `"additionalProperties":false`} {
		if !strings.Contains(schema, want) {
			t.Errorf("Expected schema to contain %s, got %s", want, schema)
		}
	}
}

func TestParseAgentResponse(t *testing.T) {
	resp, err := parseAgentResponse(`{"station_name":"  Cesena ","user_message":"Ecco Cesena"}`)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StationName != "Cesena" {
		t.Errorf("Expected trimmed station name, got %q", resp.StationName)
	}
	if resp.UserMessage != "Ecco Cesena" {
		t.Errorf("Unexpected user message %q", resp.UserMessage)
	}

	if _, err := parseAgentResponse(`not json`); err == nil {
		t.Error("Expected an error for malformed content")
	}
}

func TestNewOpenAIServiceRequiresKey(t *testing.T) {
	if _, err := NewOpenAIService(""); err == nil {
		t.Error("Expected an error without an API key")
	}
}

func TestStationPromptListsStations(t *testing.T) {
	prompt := stationPrompt([]string{"Cesena", "S. Carlo"})
	if !strings.Contains(prompt, "Cesena, S. Carlo") {
		t.Errorf("Expected prompt to list the stations, got %q", prompt)
	}
}
