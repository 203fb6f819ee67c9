package gemini

import (
	"github.com/defendhub/sentinel/models"
	"google.golang.org/genai"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-3-pro-preview"

// responseSchema is the structured-output contract enforced by the API.
func responseSchema() *genai.Schema {
	routes := models.ValidRoutes()
	paths := make([]string, len(routes))
	for i, r := range routes {
		paths[i] = string(r)
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"text": {Type: genai.TypeString},
			"action": {
				Type:     genai.TypeObject,
				Nullable: genai.Ptr(true),
				Properties: map[string]*genai.Schema{
					"label": {Type: genai.TypeString},
					"path":  {Type: genai.TypeString, Format: "enum", Enum: paths},
				},
				Required: []string{"label", "path"},
			},
		},
		Required: []string{"text"},
	}
}

// generateConfig is fixed at session creation.
func generateConfig(instruction string) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    responseSchema(),
	}
}
