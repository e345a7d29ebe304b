// Package qcconfig reads check definitions from YAML.
package qcconfig

import (
	"io"
	"os"

	"github.com/blkbis/idxqc/qc"
	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

const CurrentVersion = "1"

type OnFailAction string

const (
	OnFailError   OnFailAction = "error"
	OnFailWarning OnFailAction = "warn"
)

type Config struct {
	Version string  `yaml:"version"`
	Checks  []Check `yaml:"checks"`
}

// Check is the definition of a single check. Only the fields used by Type
// need be set.
type Check struct {
	ID          string       `yaml:"id"`
	Type        qc.Kind      `yaml:"type"`
	Description string       `yaml:"description"`
	OnFail      OnFailAction `yaml:"on_fail,omitempty"`

	Columns      []string `yaml:"columns,omitempty"`
	Filter       string   `yaml:"filter,omitempty"`
	Value        string   `yaml:"value,omitempty"`
	Key          []string `yaml:"key,omitempty"`
	Convention   string   `yaml:"convention,omitempty"`
	DateColumn   string   `yaml:"date_column,omitempty"`
	IDColumn     string   `yaml:"id_column,omitempty"`
	ColumnFilter string   `yaml:"column_filter,omitempty"`
}

// Load decodes a check configuration. Unknown fields are rejected.
func Load(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("check configuration is empty")
		}
		return nil, errors.Wrap(err, "error decoding check configuration")
	}
	if cfg.Version != "" && cfg.Version != CurrentVersion {
		return nil, errors.Newf("unsupported check configuration version %q", cfg.Version)
	}
	return &cfg, nil
}

// LoadFile reads a check configuration from a file.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening check configuration")
	}
	defer func() { _ = f.Close() }()
	cfg, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return cfg, nil
}

// Build constructs the configured checks in order. Check ids must be unique.
func (c *Config) Build() ([]qc.Check, error) {
	seen := make(map[string]struct{}, len(c.Checks))
	ret := make([]qc.Check, 0, len(c.Checks))
	for i, def := range c.Checks {
		if _, ok := seen[def.ID]; ok && def.ID != "" {
			return nil, &qc.ConfigurationError{CheckID: def.ID, Reason: "duplicate check id"}
		}
		seen[def.ID] = struct{}{}
		check, err := def.Build()
		if err != nil {
			return nil, errors.Wrapf(err, "check %d", i)
		}
		ret = append(ret, check)
	}
	return ret, nil
}

func (c Check) strict() (bool, error) {
	switch c.OnFail {
	case OnFailError, "":
		return true, nil
	case OnFailWarning:
		return false, nil
	}
	return false, &qc.ConfigurationError{
		CheckID: c.ID,
		Reason:  "on_fail must be one of error, warn; got " + string(c.OnFail),
	}
}

// Build constructs the check described by c.
func (c Check) Build() (qc.Check, error) {
	strict, err := c.strict()
	if err != nil {
		return nil, err
	}
	cfg := qc.Config{ID: c.ID, Description: c.Description, Strict: strict}
	switch c.Type {
	case qc.KindValue:
		return qc.NewValueCheck(cfg, names(c.Columns), nil, c.Filter)
	case qc.KindColumnsSum:
		v, _, err := apd.NewFromString(c.Value)
		if err != nil {
			return nil, &qc.ConfigurationError{CheckID: c.ID, Reason: "value must be a number, got " + c.Value}
		}
		return qc.NewColumnsSumCheck(cfg, names(c.Columns), *v)
	case qc.KindIndex:
		return qc.NewStructuralIndexCheck(cfg, names(c.Key))
	case qc.KindColumnsCase:
		conv, err := qc.ParseConvention(c.Convention)
		if err != nil {
			return nil, &qc.ConfigurationError{CheckID: c.ID, Reason: "unknown convention " + c.Convention}
		}
		return qc.NewStructuralColumnsCheck(cfg, names(c.Columns), conv)
	case qc.KindComparison:
		return qc.NewComparisonCheck(cfg, names(c.Key), c.ColumnFilter)
	case qc.KindUniqueKey:
		return qc.NewUniqueKeyCheck(cfg, names(c.Key))
	case qc.KindPanelCoverage:
		return qc.NewPanelCoverageCheck(cfg, tree.Name(c.DateColumn), tree.Name(c.IDColumn))
	}
	return nil, &qc.ConfigurationError{CheckID: c.ID, Reason: "unknown check type " + string(c.Type)}
}

func names(strs []string) []tree.Name {
	var ret []tree.Name
	for _, s := range strs {
		ret = append(ret, tree.Name(s))
	}
	return ret
}
