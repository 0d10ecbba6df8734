package models

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// Prompt names used by the services.
const (
	PromptFirstQuestion      = "first_question"
	PromptFollowUpQuestion   = "follow_up_question"
	PromptScoreFeedback      = "score_feedback"
	PromptScoreProgress      = "score_progress"
	PromptResumeScore        = "resume_score"
	PromptResumeStrengths    = "resume_strengths"
	PromptResumeImprovements = "resume_improvements"
	PromptBehaviourAnalysis  = "behaviour_analysis"
)

// PromptLibrary holds the parsed prompt templates, keyed by name.
type PromptLibrary struct {
	templates map[string]*template.Template
}

type promptFile struct {
	Prompts map[string]string `yaml:"prompts"`
}

// LoadPrompts parses the embedded prompt set and, when path is non-empty, overlays
// the prompts defined in that YAML file.
func LoadPrompts(path string) (*PromptLibrary, error) {
	var base promptFile
	if err := yaml.Unmarshal(defaultPrompts, &base); err != nil {
		return nil, fmt.Errorf("failed to unmarshal default prompts: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompts file: %w", err)
		}
		var override promptFile
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal prompts YAML: %w", err)
		}
		for name, text := range override.Prompts {
			base.Prompts[name] = text
		}
	}

	lib := &PromptLibrary{templates: make(map[string]*template.Template, len(base.Prompts))}
	for name, text := range base.Prompts {
		tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("prompt %q: %w", name, err)
		}
		lib.templates[name] = tmpl
	}
	return lib, nil
}

// Render executes the named prompt with data.
func (l *PromptLibrary) Render(name string, data any) (string, error) {
	tmpl, ok := l.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", name, err)
	}
	return buf.String(), nil
}
