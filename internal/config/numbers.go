package config

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidationRules and ValidatorConfigs are free-form, so numbers inside them
// only keep their Go type across a save and load if the file spells it out.
// Integers are written as integers and floats always carry a fraction or
// exponent; on load, json.Number is resolved by that spelling.

// yamlFloat writes a float64 as a !!float scalar even when it is integral
type yamlFloat float64

func (f yamlFloat) MarshalYAML() (interface{}, error) {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!float",
		Value: formatFloat(float64(f)),
	}, nil
}

// formatFloat renders f so that it never reads back as an integer
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// encodeNumbers returns a copy of v with every float64 wrapped for format
func encodeNumbers(v interface{}, format Format) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = encodeNumbers(item, format)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = encodeNumbers(item, format)
		}
		return out
	case float64:
		if format == FormatYAML {
			return yamlFloat(val)
		}
		if math.IsInf(val, 0) || math.IsNaN(val) {
			// encoding/json rejects these; let it report the error
			return val
		}
		return json.Number(formatFloat(val))
	default:
		return v
	}
}

// decodeNumbers replaces json.Number values in v with int or float64
func decodeNumbers(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, item := range val {
			val[k] = decodeNumbers(item)
		}
		return val
	case []interface{}:
		for i, item := range val {
			val[i] = decodeNumbers(item)
		}
		return val
	case json.Number:
		s := val.String()
		if !strings.ContainsAny(s, ".eE") {
			if n, err := strconv.ParseInt(s, 10, strconv.IntSize); err == nil {
				return int(n)
			}
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return s
	default:
		return v
	}
}

// withEncodedNumbers returns a shallow copy of cfg whose free-form maps are
// ready for encoding in format
func withEncodedNumbers(cfg *ValidationConfig, format Format) *ValidationConfig {
	out := *cfg
	if cfg.ValidationRules != nil {
		out.ValidationRules = encodeNumbers(cfg.ValidationRules, format).(map[string]interface{})
	}
	if cfg.ValidatorConfigs != nil {
		out.ValidatorConfigs = make(map[string]map[string]interface{}, len(cfg.ValidatorConfigs))
		for id, vc := range cfg.ValidatorConfigs {
			if vc == nil {
				out.ValidatorConfigs[id] = nil
				continue
			}
			out.ValidatorConfigs[id] = encodeNumbers(vc, format).(map[string]interface{})
		}
	}
	return &out
}

// resolveNumbers converts json.Number values left by a UseNumber decoder
func resolveNumbers(cfg *ValidationConfig) {
	decodeNumbers(cfg.ValidationRules)
	for _, vc := range cfg.ValidatorConfigs {
		decodeNumbers(vc)
	}
}
