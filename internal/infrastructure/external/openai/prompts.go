package openai

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

// DefaultUserTemplate sends the validator prompt unchanged
const DefaultUserTemplate = "{{.Prompt}}"

// PromptConfig holds the messages wrapped around every validator prompt
type PromptConfig struct {
	System       string `yaml:"system"`
	UserTemplate string `yaml:"user_template"`
}

// promptData is what user templates can reference
type promptData struct {
	Prompt      string
	ValidatorID string
	ContentType string
}

// LoadPrompts loads a prompt configuration from a YAML file. Empty fields
// keep the defaults given.
func LoadPrompts(path string, defaults PromptConfig) (PromptConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return defaults, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var loaded PromptConfig
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return defaults, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}

	if loaded.System == "" {
		loaded.System = defaults.System
	}
	if loaded.UserTemplate == "" {
		loaded.UserTemplate = defaults.UserTemplate
	}
	if _, err := template.New("prompt").Parse(loaded.UserTemplate); err != nil {
		return defaults, fmt.Errorf("invalid user_template: %w", err)
	}
	return loaded, nil
}

// renderTemplate renders a template with provided data
func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
