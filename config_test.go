package openmalaria

import (
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
)

const sampleScenarioTOML = `
name = "test-scenario"
master_seed = 7

[population]
size = 100
max_age_years = 60
pre_init_years = 1
init_years = 1
main_years = 1
availability_cv = 0.5
mean_body_mass_kg = 50

[within_host]
model = "descriptive"
h_star = 1
y_star = 1
alpha_m = 0
decay_m = 1
step_length_days = 5

[pathogenesis]
model = "pyrogenic"
y_star_0 = 1500
alpha = 1
y_star_1 = 1
y_star_half_life = 10
severe_threshold = 784000
critical_age = 0.117

[clinical]
model = "immediate_outcomes"

[[genotype]]
id = 1
initial_freq = 1.0

[[vector]]
name = "funestus"
emergence_model = "forced"
eip_days = 10
feeding_cycle_days = 3
human_blood_index = 0.9
prob_feeding_survival = 0.9
fourier_a0 = 100

[monitoring]
sink = "none"
survey_period_days = 5
`

func TestScenarioConfig_ParsesAndValidates(t *testing.T) {
	var cfg ScenarioConfig
	if _, err := toml.Decode(sampleScenarioTOML, &cfg); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "decoding sample scenario TOML", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "validating sample scenario", err)
	}
	if cfg.Name != "test-scenario" {
		t.Fatalf("expected scenario name %q, instead got %q", "test-scenario", cfg.Name)
	}
}

func TestScenarioConfig_ValidateRejectsUnknownModel(t *testing.T) {
	var cfg ScenarioConfig
	if _, err := toml.Decode(strings.Replace(sampleScenarioTOML, `model = "descriptive"`, `model = "bogus"`, 1), &cfg); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "decoding mutated scenario TOML", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected a validation error for an unknown within_host model, got nil")
	}
}

func TestScenarioConfig_ValidateRejectsBadGenotypeFrequencySum(t *testing.T) {
	var cfg ScenarioConfig
	if _, err := toml.Decode(strings.Replace(sampleScenarioTOML, "initial_freq = 1.0", "initial_freq = 0.4", 1), &cfg); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "decoding mutated scenario TOML", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected a validation error for genotype frequencies not summing to 1, got nil")
	}
}

func TestDecayShapeFromName_RejectsUnknown(t *testing.T) {
	if _, err := decayShapeFromName("not-a-shape"); err == nil {
		t.Fatalf("expected an error for an unknown decay shape name, got nil")
	}
}

func TestDecayShapeFromName_KnownShapes(t *testing.T) {
	for _, name := range []string{"constant", "step", "linear", "exponential", "weibull", "hill", "smooth_compact"} {
		if _, err := decayShapeFromName(name); err != nil {
			t.Fatalf(UnexpectedErrorWhileError, "resolving known decay shape "+name, err)
		}
	}
}
