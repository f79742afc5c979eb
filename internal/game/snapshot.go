package game

// Snapshot is the persisted form of a session. Loading decodes a stored
// snapshot over DefaultSnapshot, so fields missing from older saves keep
// their defaults.
type Snapshot struct {
	Version   int        `json:"version" msgpack:"version"`
	Targets   []Target   `json:"targets" msgpack:"targets"`
	Scan      ScanParams `json:"scan" msgpack:"scan"`
	Modifiers Modifiers  `json:"modifiers" msgpack:"modifiers"`
}

// DefaultSnapshot returns the state of a brand new save.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Version:   SnapshotVersion,
		Scan:      DefaultScanParams(),
		Modifiers: DefaultModifiers(),
	}
}

// Normalize repairs a decoded snapshot so it satisfies the model invariants.
// Anything it cannot repair is reset to its default.
func (s *Snapshot) Normalize() {
	if s.Version < SnapshotVersion {
		s.Version = SnapshotVersion
	}

	if len(s.Targets) != 0 && !validTargetSet(s.Targets) {
		s.Targets = nil
	}

	if s.Scan.RangeKm <= 0 {
		s.Scan.RangeKm = DefaultRangeKm
	}
	if s.Scan.CenterOverride != nil && !s.Scan.CenterOverride.Valid() {
		s.Scan.CenterOverride = nil
	}

	r := s.Modifiers.CollectionRadiusKm
	if r <= 0 || r > DefaultCollectionRadiusKm {
		s.Modifiers.CollectionRadiusKm = DefaultCollectionRadiusKm
	}
	if s.Modifiers.UnlockedFeatures == nil {
		s.Modifiers.UnlockedFeatures = make(map[string]bool)
	}
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Targets = CloneTargets(s.Targets)
	if s.Scan.CenterOverride != nil {
		c := *s.Scan.CenterOverride
		out.Scan.CenterOverride = &c
	}
	out.Modifiers = s.Modifiers.Clone()
	return out
}

func validTargetSet(targets []Target) bool {
	if len(targets) != TargetCount {
		return false
	}
	seen := make(map[int]bool, TargetCount)
	for _, t := range targets {
		if t.ID < 1 || t.ID > TargetCount || seen[t.ID] || !t.Coordinate.Valid() {
			return false
		}
		seen[t.ID] = true
	}
	return true
}
