// Package openai interprets free-text station queries with an OpenAI model
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// AgentResponse defines the structured output from the OpenAI agent.
type AgentResponse struct {
	StationName string `json:"station_name" jsonschema_description:"The exact station name from the known list, or an empty string"`
	UserMessage string `json:"user_message" jsonschema_description:"A short message in Italian to show back to the user"`
}

// OpenAIService defines the interface for interacting with the OpenAI agent.
type OpenAIService interface {
	InterpretStationQuery(ctx context.Context, query string, knownStations []string) (*AgentResponse, error)
}

// openAIServiceImpl implements the OpenAIService interface.
type openAIServiceImpl struct {
	client openai.Client
	schema interface{}
}

// GenerateSchema generates a JSON schema for a given type.
func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	return schema
}

// NewOpenAIService creates and initializes a new OpenAIService.
func NewOpenAIService(apiKey string) (OpenAIService, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY not set")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	schema := GenerateSchema[AgentResponse]()

	return &openAIServiceImpl{
		client: client,
		schema: schema,
	}, nil
}

func stationPrompt(knownStations []string) string {
	return fmt.Sprintf(`Sei un assistente che aiuta a trovare le stazioni idrometriche dell'Emilia-Romagna.

L'utente scrive il nome di una stazione, spesso con errori di battitura, abbreviazioni o il nome di un fiume o di un paese vicino.

Elenco delle stazioni conosciute: %s

Regole:
1. Se la richiesta corrisponde chiaramente a una stazione dell'elenco:
   - station_name = il nome ESATTO come compare nell'elenco
   - user_message = una breve conferma in italiano
2. Altrimenti:
   - station_name = ""
   - user_message = una breve risposta in italiano che suggerisce di usare /stazioni

Rispondi **solo** in JSON.`, strings.Join(knownStations, ", "))
}

// InterpretStationQuery sends a message to the OpenAI agent and returns the structured response.
func (s *openAIServiceImpl) InterpretStationQuery(ctx context.Context, query string, knownStations []string) (*AgentResponse, error) {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "station_response",
		Description: openai.String("Structured response containing the station name and a user message"),
		Schema:      s.schema,
		Strict:      openai.Bool(true),
	}

	respFormat := openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
	}

	chat, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(stationPrompt(knownStations)),
			openai.UserMessage(query),
		},
		ResponseFormat: respFormat,
		Model:          openai.ChatModelGPT4o,
	})
	if err != nil {
		return nil, fmt.Errorf("error calling OpenAI API: %w", err)
	}

	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return nil, errors.New("received empty response from OpenAI")
	}

	return parseAgentResponse(chat.Choices[0].Message.Content)
}

func parseAgentResponse(content string) (*AgentResponse, error) {
	var agentResp AgentResponse
	if err := json.Unmarshal([]byte(content), &agentResp); err != nil {
		slog.Error("failed to unmarshal OpenAI response", "error", err, "raw", content)
		return nil, fmt.Errorf("error unmarshalling OpenAI response: %w", err)
	}
	agentResp.StationName = strings.TrimSpace(agentResp.StationName)
	return &agentResp, nil
}
