package game

// Target set
const (
	TargetCount = 7
)

// Scan defaults
const (
	DefaultRangeKm = 5.0
	// GlobalRangeKm is the range above which the oracle is asked for
	// worldwide landmarks instead of nearby points.
	GlobalRangeKm = 1000.0
)

// Collection radius (km). Mastery tiers only ever lower it.
const (
	DefaultCollectionRadiusKm = 0.1
	MasteryIRadiusKm          = 0.05
	MasteryIIRadiusKm         = 0.025
	MasteryIIIRadiusKm        = 0.01
)

// Feature flags granted by one-time wishes.
const (
	FeatureScouter    = "scouter"     // distance readout on radar blips
	FeatureCustomZone = "custom_zone" // scan center override
	FeatureWorldRadar = "world_radar" // scan ranges above GlobalRangeKm
)

// SnapshotVersion is bumped on additive schema changes; older saves are
// merged over current defaults.
const SnapshotVersion = 2
