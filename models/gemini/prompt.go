package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/defendhub/sentinel/models"
	"github.com/defendhub/sentinel/models/knowledge"
	"github.com/invopop/jsonschema"
)

// ReplySchemaJSON is the JSON Schema of models.Reply as embedded in the
// system instruction.
func ReplySchemaJSON() (string, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(&models.Reply{})
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal reply schema: %w", err)
	}
	return string(data), nil
}

// BuildSystemInstruction renders the persona, knowledge base, operating rules
// and output contract for a remote session.
func BuildSystemInstruction(kb *knowledge.Base) (string, error) {
	schema, err := ReplySchemaJSON()
	if err != nil {
		return "", err
	}
	co := kb.Company

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, the advanced virtual defense assistant for %s, a premium firm headquartered in Lagos, Nigeria (Victoria Island).\n", co.Assistant, co.Name)
	b.WriteString("Your goal is to assist visitors, explain cybersecurity services, show case studies, and guide high-value clients to the contact channel.\n\n")

	b.WriteString("IDENTITY & TONE:\n")
	fmt.Fprintf(&b, "- Name: %s.\n", co.Assistant)
	b.WriteString("- Tone: professional, cyber-engineered, concise, authoritative, slightly futuristic but corporate.\n")
	b.WriteString("- Language: English.\n\n")

	b.WriteString("KNOWLEDGE BASE:\n1. SERVICES:\n")
	for _, s := range kb.Services {
		fmt.Fprintf(&b, "   - %s (%s).\n", s.Title, strings.Join(s.Specs, ", "))
	}
	b.WriteString("2. PORTFOLIO (reference these if asked for experience or cases):\n")
	for _, c := range kb.Cases {
		fmt.Fprintf(&b, "   - %s (%s, %s). Route: %s\n", c.Title, c.Sector, c.Highlight, c.Route())
	}
	b.WriteString("3. CONTACT / LOCATION:\n")
	fmt.Fprintf(&b, "   - HQ: %s.\n", co.HQ)
	fmt.Fprintf(&b, "   - Email: %s\n", co.Email)
	fmt.Fprintf(&b, "   - Emergency: %s.\n", co.EmergencyPhone)
	fmt.Fprintf(&b, "   - We operate a %s.\n\n", co.SOC)

	b.WriteString("RULES:\n")
	fmt.Fprintf(&b, "- If the user asks for pricing or quotes, direct them to %s.\n", models.RouteContact)
	fmt.Fprintf(&b, "- If the user mentions \"hack\", \"breach\" or \"attack\", treat it as an EMERGENCY and direct them to %s with a critical tone.\n", models.RouteContact)
	fmt.Fprintf(&b, "- If the user asks about jobs, explain we only scout active agents and point to %s.\n", models.RouteAbout)
	b.WriteString("- Keep responses under 3 sentences unless explaining a complex topic.\n\n")

	b.WriteString("OUTPUT FORMAT:\n")
	b.WriteString("Every reply must be a single JSON object matching this schema. \"action\" is optional and only present when a relevant navigation exists.\n")
	b.WriteString(schema)
	b.WriteString("\n\nValid paths: ")
	routes := models.ValidRoutes()
	paths := make([]string, len(routes))
	for i, r := range routes {
		paths[i] = string(r)
	}
	b.WriteString(strings.Join(paths, ", "))
	b.WriteString("\n")

	return b.String(), nil
}
