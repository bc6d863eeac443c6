package model

import "time"

// WorldStatus is the generation lifecycle of a World.
type WorldStatus string

const (
	WorldGenerating WorldStatus = "generating"
	WorldReady      WorldStatus = "ready"
	WorldFailed     WorldStatus = "failed"
)

// TemplateType names a world template preset (difficulty/abundance
// curve). Concrete presets are loaded by the config package and referenced
// by name here so the template itself can be tuned without a migration.
type TemplateType string

const (
	TemplateStandard TemplateType = "STANDARD"
	TemplateRelaxed  TemplateType = "RELAXED"
	TemplateHarsh    TemplateType = "HARSH"
)

// NoiseBundle is one of the three seeded multi-octave noise parameter sets
// (elevation, precipitation, temperature) used by worldgen.
type NoiseBundle struct {
	Octaves     int     `json:"octaves"`
	Amplitude   float64 `json:"amplitude"`
	Frequency   float64 `json:"frequency"`
	Persistence float64 `json:"persistence"`
	Scale       float64 `json:"scale"`
}

// TemplateConfig parameterizes a world's difficulty/abundance/disaster
// curve. Production reads it through WorldMul; DisasterFrequency is stored
// with the world but nothing reads it, and construction does not read the
// template.
type TemplateConfig struct {
	Type               TemplateType `json:"type"`
	Difficulty         float64      `json:"difficulty"`
	Abundance          float64      `json:"abundance"`
	Depletion          float64      `json:"depletion"`
	DisasterFrequency  float64      `json:"disasterFrequency"`
	DisasterSeverity   float64      `json:"disasterSeverity"`
	ProductionMultiplier float64    `json:"productionMultiplier"`
}

// WorldMul returns the world-template production multiplier used by the
// production calculator.
func (t TemplateConfig) WorldMul() float64 {
	if t.ProductionMultiplier <= 0 {
		return 1.0
	}
	return t.ProductionMultiplier
}

// World is a single generated map instance owned by a Server.
type World struct {
	ID                  string         `db:"id" json:"id"`
	ServerID            string         `db:"server_id" json:"serverId"`
	Name                string         `db:"name" json:"name"`
	Status              WorldStatus    `db:"status" json:"status"`
	FailureReason        string         `db:"failure_reason" json:"failureReason,omitempty"`
	WidthRegions        int            `db:"width_regions" json:"widthRegions"`
	HeightRegions       int            `db:"height_regions" json:"heightRegions"`
	Seed                int64          `db:"seed" json:"seed"`
	Elevation           NoiseBundle    `db:"elevation_noise" json:"elevation"`
	Precipitation       NoiseBundle    `db:"precipitation_noise" json:"precipitation"`
	Temperature         NoiseBundle    `db:"temperature_noise" json:"temperature"`
	Template            TemplateConfig `db:"template_config" json:"template"`
	CreatedAt           time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updatedAt"`
}
