package schema

import (
	"errors"
	"fmt"

	"github.com/venicegeo/bf-metadata-summary/model"
)

// MaxShapefileKeyLen is the longest attribute name a shapefile DBF can hold
const MaxShapefileKeyLen = 10

// FieldRule maps source keys onto one canonical field. With several source
// keys the first non-empty value wins. Codes found in Translate are replaced;
// codes that are not pass through unchanged.
type FieldRule struct {
	Source      []string
	Canonical   string
	Kind        Kind
	Translate   map[string]string
	TimeLayouts []string
}

// Mapping is the validated, declarative rule set for one source schema
type Mapping struct {
	Name      string
	Rules     []FieldRule
	Constants map[string]interface{}
	maxKeyLen int
}

// NewMapping validates a rule set. Canonical names must be non-empty, unique
// across rules and constants, and no longer than maxKeyLen (when positive);
// each source key may feed only one rule.
func NewMapping(name string, rules []FieldRule, constants map[string]interface{}, maxKeyLen int) (*Mapping, error) {
	rules = append([]FieldRule(nil), rules...)
	canonical := map[string]bool{}
	sourceKeys := map[string]string{}
	checkName := func(field string) error {
		switch {
		case field == "":
			return model.NewError(model.SchemaViolation, name, field, nil, errors.New("canonical name is empty"))
		case maxKeyLen > 0 && len(field) > maxKeyLen:
			return model.NewError(model.SchemaViolation, name, field, nil,
				fmt.Errorf("canonical name is %d characters, the limit is %d", len(field), maxKeyLen))
		case canonical[field]:
			return model.NewError(model.SchemaViolation, name, field, nil, errors.New("canonical name is mapped more than once"))
		}
		canonical[field] = true
		return nil
	}

	for i, rule := range rules {
		if err := checkName(rule.Canonical); err != nil {
			return nil, err
		}
		if len(rule.Source) == 0 {
			return nil, model.NewError(model.SchemaViolation, name, rule.Canonical, nil, errors.New("rule has no source keys"))
		}
		for _, key := range rule.Source {
			if key == "" {
				return nil, model.NewError(model.SchemaViolation, name, rule.Canonical, nil, errors.New("empty source key"))
			}
			if other, ok := sourceKeys[key]; ok {
				return nil, model.NewError(model.SchemaViolation, name, rule.Canonical, key,
					fmt.Errorf("source key already feeds %s", other))
			}
			sourceKeys[key] = rule.Canonical
		}
		if rule.Kind == Auto {
			rules[i].Kind = ColumnFor(rule.Canonical).Kind
		}
	}
	for field := range constants {
		if err := checkName(field); err != nil {
			return nil, err
		}
	}
	return &Mapping{Name: name, Rules: rules, Constants: constants, maxKeyLen: maxKeyLen}, nil
}

// Fields returns every canonical name the mapping produces, in table order
func (m *Mapping) Fields() []string {
	names := make([]string, 0, len(m.Rules)+len(m.Constants))
	for _, rule := range m.Rules {
		names = append(names, rule.Canonical)
	}
	for field := range m.Constants {
		names = append(names, field)
	}
	return OrderColumns(names)
}
