package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/venicegeo/bf-metadata-summary/footprint"
	"github.com/venicegeo/bf-metadata-summary/model"
	"github.com/venicegeo/bf-metadata-summary/source"
	"github.com/venicegeo/bf-metadata-summary/util"
)

// Policy decides what a failed record does to its source
type Policy int

const (
	// RejectRecord drops the record, logs why and keeps going
	RejectRecord Policy = iota
	// AbortSource stops the source at its first bad record
	AbortSource
)

// Report counts the outcome of normalizing one source
type Report struct {
	Source   string
	Accepted int
	Rejected map[model.Kind]int
}

// RejectedTotal returns the number of rejected records
func (r Report) RejectedTotal() int {
	total := 0
	for _, n := range r.Rejected {
		total += n
	}
	return total
}

// Normalizer applies a mapping to the records of one named source
type Normalizer struct {
	Source  string
	Mapping *Mapping
	Policy  Policy
	Context util.LogContext
}

// Normalize converts one raw record into the canonical schema. Unmapped
// source keys are dropped; mapped keys with no value become null.
func (n *Normalizer) Normalize(raw source.RawRecord) (*model.Record, error) {
	record := model.NewRecord(n.Source)
	for _, rule := range n.Mapping.Rules {
		key, value := firstValue(raw.Fields, rule.Source)
		converted, err := convert(rule, value)
		if err != nil {
			kind := model.SchemaViolation
			if rule.Kind == Timestamp {
				kind = model.MalformedTimestamp
			}
			return nil, model.NewError(kind, n.Source, key, value, err)
		}
		record.Set(rule.Canonical, converted)
	}
	for field, value := range n.Mapping.Constants {
		record.Set(field, value)
	}
	if record.Mission() == "" {
		return nil, model.NewError(model.SchemaViolation, n.Source, model.FieldMission, nil, fmt.Errorf("mapping %s produced no mission", n.Mapping.Name))
	}

	geometry, err := resolveGeometry(raw)
	if err != nil {
		return nil, model.NewError(model.UnparsableGeometry, n.Source, "geometry", raw.WKT, err)
	}
	record.Geometry = geometry
	return record, nil
}

// NormalizeAll normalizes every record of the source under the normalizer's policy
func (n *Normalizer) NormalizeAll(raws []source.RawRecord) ([]*model.Record, Report, error) {
	report := Report{Source: n.Source, Rejected: map[model.Kind]int{}}
	records := make([]*model.Record, 0, len(raws))
	for i, raw := range raws {
		record, err := n.Normalize(raw)
		if err != nil {
			if n.Policy == AbortSource {
				return nil, report, fmt.Errorf("record %d: %w", i, err)
			}
			report.Rejected[model.KindOf(err)]++
			util.LogAlert(n.Context, fmt.Sprintf("Rejected record %d: %v", i, err))
			continue
		}
		records = append(records, record)
	}
	report.Accepted = len(records)
	if total := report.RejectedTotal(); total > 0 {
		util.LogInfo(n.Context, fmt.Sprintf("Normalized %s: %d accepted, %d rejected", n.Source, report.Accepted, total))
	}
	return records, report, nil
}

func isEmpty(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case float64:
		return math.IsNaN(v)
	}
	return false
}

func firstValue(fields map[string]interface{}, keys []string) (string, interface{}) {
	for _, key := range keys {
		if value, ok := fields[key]; ok && !isEmpty(value) {
			return key, value
		}
	}
	return keys[0], nil
}

func textOf(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func convert(rule FieldRule, value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	text := textOf(value)
	if translated, ok := rule.Translate[text]; ok {
		text = translated
		value = translated
	}
	switch rule.Kind {
	case Integer:
		return toInteger(value, text)
	case Float:
		return toFloat(value, text)
	case Timestamp:
		layouts := append(append([]string(nil), rule.TimeLayouts...), model.SpaceTimeLayout)
		if len(rule.TimeLayouts) == 0 {
			layouts = model.DefaultTimeLayouts
		}
		return model.CanonicalizeTime(text, layouts...)
	default:
		return text, nil
	}
}

func toInteger(value interface{}, text string) (interface{}, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		if v == math.Trunc(v) {
			return int64(v), nil
		}
		return nil, fmt.Errorf("%v is not a whole number", v)
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != math.Trunc(f) {
		return nil, fmt.Errorf("%q is not an integer", text)
	}
	return int64(f), nil
}

func toFloat(value interface{}, text string) (interface{}, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", text)
	}
	return f, nil
}

func resolveGeometry(raw source.RawRecord) (orb.Geometry, error) {
	if raw.Geometry != nil {
		if err := footprint.Validate(raw.Geometry); err != nil {
			return nil, err
		}
		return raw.Geometry, nil
	}
	return footprint.ParseWKT(raw.WKT)
}
