package toolchain

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/ternarybob/mbedbridge/internal/models"
)

// appConfig is the subset of mbed_app.json the adapter understands
type appConfig struct {
	Macros          []string                              `json:"macros"`
	Config          map[string]json.RawMessage            `json:"config"`
	TargetOverrides map[string]map[string]json.RawMessage `json:"target_overrides"`
}

// appSettings is an app config applied to one target
type appSettings struct {
	macros       []string
	configParams []string // MBED_CONF_* definitions
	featuresAdd  []string
	macrosAdd    []string
	deviceHasAdd []string
}

func loadAppConfig(path string) (*appConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read app config %s: %w", path, err)
	}
	var cfg appConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse app config %s: %w", path, err)
	}
	return &cfg, nil
}

// apply resolves the app config for a target. Overrides under "*" apply
// first, then overrides keyed by any of the target's labels.
func (c *appConfig) apply(target *models.TargetConfig) (*appSettings, error) {
	settings := &appSettings{macros: slices.Clone(c.Macros)}
	params := map[string]string{}

	for name, raw := range c.Config {
		value, ok, err := configValue(raw)
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", name, err)
		}
		if ok {
			params[macroName("app", name)] = value
		}
	}

	keys := append([]string{"*"}, target.Labels()...)
	for _, key := range keys {
		overrides, ok := c.TargetOverrides[key]
		if !ok {
			continue
		}
		for param, raw := range overrides {
			if strings.HasPrefix(param, "target.") {
				var list []string
				if err := json.Unmarshal(raw, &list); err != nil {
					return nil, fmt.Errorf("override %s.%s: %w", key, param, err)
				}
				switch strings.TrimPrefix(param, "target.") {
				case "features_add":
					settings.featuresAdd = append(settings.featuresAdd, list...)
				case "macros_add":
					settings.macrosAdd = append(settings.macrosAdd, list...)
				case "device_has_add":
					settings.deviceHasAdd = append(settings.deviceHasAdd, list...)
				}
				continue
			}

			value, ok, err := scalarValue(raw)
			if err != nil {
				return nil, fmt.Errorf("override %s.%s: %w", key, param, err)
			}
			namespace, name, found := strings.Cut(param, ".")
			if !found {
				namespace, name = "app", param
			}
			if ok {
				params[macroName(namespace, name)] = value
			} else {
				delete(params, macroName(namespace, name))
			}
		}
	}

	for name, value := range params {
		settings.configParams = append(settings.configParams, name+"="+value)
	}
	sort.Strings(settings.configParams)
	return settings, nil
}

// configValue accepts either a bare value or {"value": ...}
func configValue(raw json.RawMessage) (string, bool, error) {
	var wrapped struct {
		Value json.RawMessage `json:"value"`
	}
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return "", false, err
		}
		if wrapped.Value == nil {
			return "", false, nil
		}
		return scalarValue(wrapped.Value)
	}
	return scalarValue(raw)
}

func scalarValue(raw json.RawMessage) (string, bool, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false, err
	}
	switch val := v.(type) {
	case nil:
		return "", false, nil
	case bool:
		if val {
			return "1", true, nil
		}
		return "0", true, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true, nil
	case string:
		return val, true, nil
	}
	return "", false, fmt.Errorf("unsupported value %s", string(raw))
}

// macroName builds MBED_CONF_<NAMESPACE>_<NAME> with '-' and '.' as '_'
func macroName(namespace, name string) string {
	r := strings.NewReplacer("-", "_", ".", "_")
	return "MBED_CONF_" + strings.ToUpper(r.Replace(namespace)) + "_" + strings.ToUpper(r.Replace(name))
}
