package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GenAIClient implements domain.CompletionClient on Gemini, either through
// Vertex AI or the Gemini API.
type GenAIClient struct {
	client    *genai.Client
	modelName string
}

type GenAIConfig struct {
	Model string

	// Vertex AI when Project is set; Gemini API with APIKey otherwise.
	Project  string
	Location string
	APIKey   string
}

func NewGenAIClient(ctx context.Context, cfg GenAIConfig) (*GenAIClient, error) {
	cc := &genai.ClientConfig{}
	switch {
	case cfg.Project != "":
		if cfg.Location == "" {
			return nil, fmt.Errorf("vertex location must be set")
		}
		cc.Project = cfg.Project
		cc.Location = cfg.Location
		cc.Backend = genai.BackendVertexAI
	case cfg.APIKey != "":
		cc.APIKey = cfg.APIKey
		cc.Backend = genai.BackendGeminiAPI
	default:
		return nil, fmt.Errorf("genai needs a GCP project or an API key")
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	model := cfg.Model
	if model == "" || !strings.HasPrefix(model, "gemini") {
		model = defaultGeminiModel
	}

	return &GenAIClient{client: client, modelName: model}, nil
}

// Complete implements domain.CompletionClient. System messages become the
// system instruction; the rest are sent as conversation turns.
func (c *GenAIClient) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	var system []string
	var contents []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case domain.CompletionSystem:
			system = append(system, m.Content)
		case domain.CompletionAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	temp := req.Temperature
	topP := req.TopP
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		TopP:            &topP,
		MaxOutputTokens: req.MaxTokens,
	}
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	res, err := c.client.Models.GenerateContent(ctx, c.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("genai generate content: %w", err)
	}

	text := strings.TrimSpace(res.Text())
	if text == "" {
		return "", domain.ErrEmptyCompletion
	}
	return text, nil
}
