package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/defendhub/sentinel/models"
	"github.com/defendhub/sentinel/sessions"
	"github.com/invopop/jsonschema"
)

// wireTypes are the JSON documents exchanged with widget clients.
var wireTypes = map[string]any{
	"event":   &sessions.Event{},
	"command": &sessions.Command{},
	"reply":   &models.Reply{},
	"message": &models.Message{},
	"state":   &models.WidgetState{},
}

func reflectSchema(v any) *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	return reflector.Reflect(v)
}

// generate writes <name>.schema.json for every wire type into outDir and
// returns the written paths in name order.
func generate(outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	names := make([]string, 0, len(wireTypes))
	for name := range wireTypes {
		names = append(names, name)
	}
	sort.Strings(names)

	var written []string
	for _, name := range names {
		data, err := json.MarshalIndent(reflectSchema(wireTypes[name]), "", "  ")
		if err != nil {
			return written, fmt.Errorf("failed to marshal %s schema: %w", name, err)
		}
		path := filepath.Join(outDir, name+".schema.json")
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func main() {
	outDir := flag.String("out", "cached_schemas", "Output directory for the generated schemas")
	flag.Parse()

	written, err := generate(*outDir)
	if err != nil {
		log.Fatal(err)
	}
	for _, path := range written {
		fmt.Printf("Schema written to %s\n", path)
	}
}
