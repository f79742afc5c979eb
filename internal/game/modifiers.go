package game

import (
	"encoding/json"
	"sort"
)

type Design int

const (
	DesignClassic Design = iota
	DesignCapsule
	DesignRedRibbon
	DesignNamekian
)

var designNames = map[Design]string{
	DesignClassic:   "classic",
	DesignCapsule:   "capsule",
	DesignRedRibbon: "red_ribbon",
	DesignNamekian:  "namekian",
}

func (d Design) String() string {
	if s, ok := designNames[d]; ok {
		return s
	}
	return "classic"
}

// ParseDesign maps a design name to its value.
func ParseDesign(s string) (Design, bool) {
	for d, name := range designNames {
		if name == s {
			return d, true
		}
	}
	return DesignClassic, false
}

// MarshalJSON serializes Design as a string.
func (d Design) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON deserializes Design from a string. Unknown names fall back
// to the classic design.
func (d *Design) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*d, _ = ParseDesign(s)
	return nil
}

type Race int

const (
	RaceHuman Race = iota
	RaceSaiyan
	RaceSuperSaiyan
	RaceSuperSaiyan2
)

var raceNames = map[Race]string{
	RaceHuman:        "human",
	RaceSaiyan:       "saiyan",
	RaceSuperSaiyan:  "super_saiyan",
	RaceSuperSaiyan2: "super_saiyan_2",
}

func (r Race) String() string {
	if s, ok := raceNames[r]; ok {
		return s
	}
	return "human"
}

// ParseRace maps a race name to its value.
func ParseRace(s string) (Race, bool) {
	for r, name := range raceNames {
		if name == s {
			return r, true
		}
	}
	return RaceHuman, false
}

// MarshalJSON serializes Race as a string.
func (r Race) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON deserializes Race from a string.
func (r *Race) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r, _ = ParseRace(s)
	return nil
}

// Modifiers are the progression-driven settings of a session.
// CollectionRadiusKm only decreases and UnlockedFeatures only grows.
type Modifiers struct {
	ActiveDesign       Design          `json:"active_design" msgpack:"active_design"`
	ActiveRace         Race            `json:"active_race" msgpack:"active_race"`
	CollectionRadiusKm float64         `json:"collection_radius_km" msgpack:"collection_radius_km"`
	UnlockedFeatures   map[string]bool `json:"unlocked_features" msgpack:"unlocked_features"`
}

// DefaultModifiers returns the starting modifiers of a new save.
func DefaultModifiers() Modifiers {
	return Modifiers{
		ActiveDesign:       DesignClassic,
		ActiveRace:         RaceHuman,
		CollectionRadiusKm: DefaultCollectionRadiusKm,
		UnlockedFeatures:   make(map[string]bool),
	}
}

// HasFeature reports whether a feature has been unlocked.
func (m *Modifiers) HasFeature(name string) bool {
	return m.UnlockedFeatures[name]
}

// Unlock adds a feature. Features are never removed.
func (m *Modifiers) Unlock(name string) {
	if m.UnlockedFeatures == nil {
		m.UnlockedFeatures = make(map[string]bool)
	}
	m.UnlockedFeatures[name] = true
}

// TightenRadius lowers the collection radius to km. It returns false and
// leaves the radius alone when km would not lower it.
func (m *Modifiers) TightenRadius(km float64) bool {
	if km <= 0 || km >= m.CollectionRadiusKm {
		return false
	}
	m.CollectionRadiusKm = km
	return true
}

// Features returns the unlocked feature names in sorted order.
func (m *Modifiers) Features() []string {
	names := make([]string, 0, len(m.UnlockedFeatures))
	for name, ok := range m.UnlockedFeatures {
		if ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy.
func (m Modifiers) Clone() Modifiers {
	out := m
	out.UnlockedFeatures = make(map[string]bool, len(m.UnlockedFeatures))
	for k, v := range m.UnlockedFeatures {
		out.UnlockedFeatures[k] = v
	}
	return out
}
