package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/rxtech-lab/argo-codegen/internal/compiler"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
	"gopkg.in/yaml.v3"
)

const (
	configDir          = "./config"
	schemaName         = "codegen-config.json"
	sampleConfigName   = "codegen-config.yaml"
	settingsSchemaName = "strategy-settings.json"
)

func main() {
	config := compiler.EmptyConfig()

	schemaPath := filepath.Join(configDir, schemaName)
	sampleConfigPath := filepath.Join(configDir, sampleConfigName)

	if err := validatePaths(schemaPath, sampleConfigPath); err != nil {
		log.Fatal(err)
	}

	if err := generateSchemaFile(config, schemaPath); err != nil {
		log.Fatal(err)
	}

	if err := generateSettingsSchemaFile(filepath.Join(configDir, settingsSchemaName)); err != nil {
		log.Fatal(err)
	}

	if err := generateSampleConfig(config, sampleConfigPath, schemaName); err != nil {
		log.Fatal(err)
	}

	log.Printf("Schema successfully generated at %s", schemaPath)
}

// generateSchemaFile writes the JSON schema of the compiler config.
func generateSchemaFile(config compiler.Config, schemaPath string) error {
	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	return writeFile(schemaPath, []byte(schemaJSON))
}

// generateSettingsSchemaFile writes the JSON schema of strategy settings.
func generateSettingsSchemaFile(path string) error {
	schemaJSON, err := template.SettingsSchema()
	if err != nil {
		return fmt.Errorf("failed to generate settings schema: %w", err)
	}

	return writeFile(path, []byte(schemaJSON))
}

// generateSampleConfig writes a sample config next to its schema. An existing
// sample is left untouched.
func generateSampleConfig(config compiler.Config, samplePath, schemaName string) error {
	if _, err := os.Stat(samplePath); !os.IsNotExist(err) {
		return nil
	}

	yamlBytes, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal sample config to yaml: %w", err)
	}

	yamlBytes = append([]byte(getSchemaReference(schemaName)), yamlBytes...)

	if err := writeFile(samplePath, yamlBytes); err != nil {
		return err
	}

	log.Printf("Sample config successfully generated at %s", samplePath)

	return nil
}

func writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

func validatePaths(schemaPath, sampleConfigPath string) error {
	if schemaPath == "" {
		return fmt.Errorf("schema path cannot be empty")
	}

	if sampleConfigPath == "" {
		return fmt.Errorf("sample config path cannot be empty")
	}

	return nil
}

func validateSchemaName(name string) error {
	if name == "" {
		return fmt.Errorf("schema name cannot be empty")
	}

	if !strings.HasSuffix(name, ".json") {
		return fmt.Errorf("schema name %q must have .json extension", name)
	}

	return nil
}

// getSchemaReference returns the yaml-language-server header pointing at a schema.
func getSchemaReference(schemaName string) string {
	return "# yaml-language-server: $schema=" + schemaName + "\n"
}
