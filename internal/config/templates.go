package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"terraforming-mars-backend/internal/model"
)

// builtinTemplates are the world-template presets shipped with the server.
// Operators can override/extend them with a TOML file (WORLD_TEMPLATES_PATH)
// in the same shape.
var builtinTemplates = map[model.TemplateType]model.TemplateConfig{
	model.TemplateStandard: {
		Type: model.TemplateStandard, Difficulty: 1.0, Abundance: 1.0, Depletion: 1.0,
		DisasterFrequency: 1.0, DisasterSeverity: 1.0, ProductionMultiplier: 1.0,
	},
	model.TemplateRelaxed: {
		Type: model.TemplateRelaxed, Difficulty: 0.6, Abundance: 1.3, Depletion: 0.6,
		DisasterFrequency: 0.5, DisasterSeverity: 0.7, ProductionMultiplier: 1.5,
	},
	model.TemplateHarsh: {
		Type: model.TemplateHarsh, Difficulty: 1.6, Abundance: 0.7, Depletion: 1.4,
		DisasterFrequency: 1.6, DisasterSeverity: 1.3, ProductionMultiplier: 0.85,
	},
}

type templateFile struct {
	Templates map[string]model.TemplateConfig `toml:"templates"`
}

// LoadTemplates returns the builtin presets, merged with overrides from
// WORLD_TEMPLATES_PATH when set.
func LoadTemplates() map[model.TemplateType]model.TemplateConfig {
	templates := make(map[model.TemplateType]model.TemplateConfig, len(builtinTemplates))
	for k, v := range builtinTemplates {
		templates[k] = v
	}

	path := os.Getenv("WORLD_TEMPLATES_PATH")
	if path == "" {
		return templates
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return templates
	}

	var parsed templateFile
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return templates
	}

	for name, tc := range parsed.Templates {
		tc.Type = model.TemplateType(name)
		templates[model.TemplateType(name)] = tc
	}

	return templates
}
