// Command generate-config writes an example config file populated with
// every default value, as a starting point for a real config.yaml.
package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/modvault/wikidraft/internal/config"
)

const header = `# Wikidraft configuration
# Copy to config.yaml and adjust. Every value below is the default.

`

func main() {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating YAML: %v\n", err)
		os.Exit(1)
	}

	out := "config.example.yaml"
	if len(os.Args) > 1 {
		out = os.Args[1]
	}

	content := header + string(yamlData)
	if out == "-" {
		fmt.Print(content)
		return
	}

	if err := os.WriteFile(out, []byte(content), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", out, err)
		os.Exit(1)
	}
	fmt.Printf("Generated example config: %s\n", out)
}
