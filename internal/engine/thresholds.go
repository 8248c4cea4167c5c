package engine

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Built-in fallbacks when no rule pack is loaded or nothing matches.
const (
	DefaultThreshold     = 63.0
	DefaultContamination = 0.005
)

// ThresholdRule maps metric names to breach/contamination overrides.
type ThresholdRule struct {
	ID             string   `yaml:"id"`
	MetricContains []string `yaml:"metric_contains"`
	Threshold      float64  `yaml:"threshold"`
	Contamination  float64  `yaml:"contamination"`
}

// thresholdConfigFile is the YAML root structure of a rule pack.
type thresholdConfigFile struct {
	Defaults struct {
		Threshold     float64 `yaml:"threshold"`
		Contamination float64 `yaml:"contamination"`
	} `yaml:"defaults"`
	Rules []ThresholdRule `yaml:"rules"`
}

// ThresholdRules resolves per-metric analysis defaults from a YAML rule
// pack. A nil receiver is valid and yields the built-in constants.
type ThresholdRules struct {
	defaultThreshold     float64
	defaultContamination float64
	rules                []ThresholdRule
	logger               *slog.Logger
}

// LoadThresholdRules loads rules from the provided path. An empty or
// missing path returns a nil engine, which falls back to built-ins.
func LoadThresholdRules(path string, logger *slog.Logger) (*ThresholdRules, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var cfg thresholdConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &ThresholdRules{
		defaultThreshold:     cfg.Defaults.Threshold,
		defaultContamination: cfg.Defaults.Contamination,
		rules:                cfg.Rules,
		logger:               logger,
	}
	if r.defaultThreshold <= 0 {
		r.defaultThreshold = DefaultThreshold
	}
	if r.defaultContamination <= 0 {
		r.defaultContamination = DefaultContamination
	}
	return r, nil
}

// Threshold returns the breach threshold for a metric name.
func (r *ThresholdRules) Threshold(metricName string) float64 {
	if r == nil {
		return DefaultThreshold
	}
	if rule := r.match(metricName); rule != nil && rule.Threshold > 0 {
		return rule.Threshold
	}
	return r.defaultThreshold
}

// Contamination returns the outlier prior for a metric name.
func (r *ThresholdRules) Contamination(metricName string) float64 {
	if r == nil {
		return DefaultContamination
	}
	if rule := r.match(metricName); rule != nil && rule.Contamination > 0 {
		return rule.Contamination
	}
	return r.defaultContamination
}

func (r *ThresholdRules) match(metricName string) *ThresholdRule {
	name := strings.ToLower(metricName)
	for i, rule := range r.rules {
		for _, frag := range rule.MetricContains {
			if frag != "" && strings.Contains(name, strings.ToLower(frag)) {
				return &r.rules[i]
			}
		}
	}
	return nil
}
