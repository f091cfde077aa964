package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
)

// schemaConstraint bounds the workload-config schema versions this
// binary understands. Grounded on the teacher's package-manager
// resolver (internal/packagemanager/resolver.go), which gates
// dependency resolution on a semver.Constraints the same way.
const schemaConstraint = ">= 1.0.0, < 2.0.0"

// WorkloadConfig describes a synthetic allocation workload for
// cmd/osmem-bench. It is reloaded live when its backing file changes
// (see watcher.go).
type WorkloadConfig struct {
	SchemaVersion   string  `json:"schema_version"`
	Iterations      int     `json:"iterations"`
	MinSize         int     `json:"min_size"`
	MaxSize         int     `json:"max_size"`
	ReallocFraction float64 `json:"realloc_fraction"`
	Verbose         bool    `json:"verbose"`
}

func (c *WorkloadConfig) validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", c.Iterations)
	}
	if c.MinSize <= 0 || c.MaxSize < c.MinSize {
		return fmt.Errorf("invalid size range [%d, %d]", c.MinSize, c.MaxSize)
	}
	if c.ReallocFraction < 0 || c.ReallocFraction > 1 {
		return fmt.Errorf("realloc_fraction must be within [0, 1], got %f", c.ReallocFraction)
	}

	return validateSchemaVersion(c.SchemaVersion)
}

// validateSchemaVersion rejects a config file whose schema_version
// falls outside schemaConstraint, so an incompatible config can never
// be silently misinterpreted — the previous good config stays live
// instead (see watcher.go's reload loop).
func validateSchemaVersion(v string) error {
	constraint, err := semver.NewConstraint(schemaConstraint)
	if err != nil {
		return fmt.Errorf("internal: bad schema constraint %q: %w", schemaConstraint, err)
	}

	sv, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("invalid schema_version %q: %w", v, err)
	}

	if !constraint.Check(sv) {
		return fmt.Errorf("schema_version %s does not satisfy %s", sv, schemaConstraint)
	}

	return nil
}

// loadWorkloadConfig reads and validates a WorkloadConfig from path.
func loadWorkloadConfig(path string) (*WorkloadConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var cfg WorkloadConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &cfg, nil
}
