// Command schema emits the JSON schema for the feedrelay config file,
// for editor validation of feedrelay.yml.
package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/feedrelay/feedrelay/pkg/config"
)

func main() {
	out := "schema.json"
	if len(os.Args) > 1 {
		out = os.Args[1]
	}

	if err := writeSchema(out); err != nil {
		log.Fatalf("schema generation failed: %v", err)
	}
	log.Printf("config schema written to %s", out)
}

func writeSchema(path string) error {
	reflector := jsonschema.Reflector{ExpandedStruct: true}
	data, err := json.MarshalIndent(reflector.Reflect(&config.Config{}), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}
