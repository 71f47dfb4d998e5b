package models

// TargetConfig is a resolved target registry entry: inheritance has already
// been applied.
type TargetConfig struct {
	Name                string   `json:"name"`
	Core                string   `json:"core"`
	Inherits            []string `json:"inherits"`
	ExtraLabels         []string `json:"extra_labels"`
	Macros              []string `json:"macros"`
	DeviceHas           []string `json:"device_has"`
	Features            []string `json:"features"`
	SupportedToolchains []string `json:"supported_toolchains"`
	Regions             []Region `json:"regions"`

	// Ancestors lists every inherited target name, nearest first
	Ancestors []string `json:"-"`
}

// Labels returns the TARGET_* label names: the target itself, its
// ancestors, then extra labels. Duplicates are dropped.
func (t *TargetConfig) Labels() []string {
	seen := make(map[string]bool)
	var labels []string
	add := func(names ...string) {
		for _, n := range names {
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			labels = append(labels, n)
		}
	}
	add(t.Name)
	add(t.Ancestors...)
	add(t.ExtraLabels...)
	return labels
}

// HasRegions reports whether the target declares flash regions to merge
func (t *TargetConfig) HasRegions() bool {
	return len(t.Regions) > 0
}
