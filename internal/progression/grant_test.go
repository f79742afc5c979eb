package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phills76/Dragon-Ball-Radar-2/internal/game"
)

func fullSet(found bool) []game.Target {
	targets := make([]game.Target, game.TargetCount)
	for i := range targets {
		targets[i] = game.Target{ID: i + 1, StarCount: i + 1, Found: found}
	}
	return targets
}

func defaultGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := DefaultGraph()
	require.NoError(t, err)
	return g
}

func TestGrant_GatedNeedsFullSet(t *testing.T) {
	g := defaultGraph(t)
	m := game.DefaultModifiers()

	targets := fullSet(true)
	targets[3].Found = false

	_, err := g.Grant("race.saiyan", &m, targets)
	assert.ErrorIs(t, err, ErrInsufficientTargets)
	assert.Equal(t, game.RaceHuman, m.ActiveRace)

	_, err = g.Grant("race.saiyan", &m, nil)
	assert.ErrorIs(t, err, ErrInsufficientTargets)
}

func TestGrant_CostCheckedBeforePrerequisite(t *testing.T) {
	g := defaultGraph(t)
	m := game.DefaultModifiers()

	_, err := g.Grant("race.super_saiyan", &m, fullSet(false))
	assert.ErrorIs(t, err, ErrInsufficientTargets)
}

func TestGrant_PrerequisiteNotMet(t *testing.T) {
	g := defaultGraph(t)
	m := game.DefaultModifiers()

	_, err := g.Grant("race.super_saiyan", &m, fullSet(true))
	require.ErrorIs(t, err, ErrPrerequisiteNotMet)

	var perr *PrerequisiteError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, NodeID("race.super_saiyan"), perr.Node)
	assert.Equal(t, "You must be a Saiyan to ascend.", perr.Reason)
	assert.Equal(t, game.RaceHuman, m.ActiveRace)
}

func TestGrant_RaceChain(t *testing.T) {
	g := defaultGraph(t)
	m := game.DefaultModifiers()

	for _, id := range []NodeID{"race.saiyan", "race.super_saiyan", "race.super_saiyan_2"} {
		res, err := g.Grant(id, &m, fullSet(true))
		require.NoError(t, err, id)
		assert.True(t, res.Consumed)
		assert.Equal(t, id, res.Node.ID)
	}
	assert.Equal(t, game.RaceSuperSaiyan2, m.ActiveRace)
}

func TestGrant_LowerRaceTierIsOwned(t *testing.T) {
	g := defaultGraph(t)
	m := game.DefaultModifiers()
	m.ActiveRace = game.RaceSuperSaiyan2

	for _, id := range []NodeID{"race.saiyan", "race.super_saiyan", "race.super_saiyan_2"} {
		_, err := g.Grant(id, &m, fullSet(true))
		assert.ErrorIs(t, err, ErrAlreadyUnlocked, id)
	}
	assert.Equal(t, game.RaceSuperSaiyan2, m.ActiveRace)

	byID := make(map[NodeID]NodeStatus)
	for _, st := range g.Evaluate(&m, fullSet(true)) {
		byID[st.ID] = st
	}
	assert.Equal(t, StatusOwned, byID["race.saiyan"].Status)
	assert.Equal(t, StatusOwned, byID["race.super_saiyan"].Status)
}

func TestGrant_MasteryTightensRadius(t *testing.T) {
	g := defaultGraph(t)
	m := game.DefaultModifiers()

	_, err := g.Grant("mastery.2", &m, fullSet(true))
	assert.ErrorIs(t, err, ErrPrerequisiteNotMet)

	steps := []struct {
		id     NodeID
		radius float64
	}{
		{"mastery.1", game.MasteryIRadiusKm},
		{"mastery.2", game.MasteryIIRadiusKm},
		{"mastery.3", game.MasteryIIIRadiusKm},
	}
	for _, s := range steps {
		_, err := g.Grant(s.id, &m, fullSet(true))
		require.NoError(t, err, s.id)
		assert.Equal(t, s.radius, m.CollectionRadiusKm)
	}

	// Re-granting a looser tier never widens the radius.
	_, err = g.Grant("mastery.1", &m, fullSet(true))
	assert.ErrorIs(t, err, ErrAlreadyUnlocked)
	assert.Equal(t, game.MasteryIIIRadiusKm, m.CollectionRadiusKm)
}

func TestGrant_OneTimeFeature(t *testing.T) {
	g := defaultGraph(t)
	m := game.DefaultModifiers()

	res, err := g.Grant("scouter", &m, fullSet(true))
	require.NoError(t, err)
	assert.True(t, res.Consumed)
	assert.True(t, m.HasFeature(game.FeatureScouter))

	_, err = g.Grant("scouter", &m, fullSet(true))
	assert.ErrorIs(t, err, ErrAlreadyUnlocked)
}

func TestGrant_WorldRadarNeedsBoth(t *testing.T) {
	g := defaultGraph(t)
	m := game.DefaultModifiers()
	m.Unlock(game.FeatureScouter)
	m.Unlock(game.FeatureCustomZone)

	_, err := g.Grant("world_radar", &m, fullSet(true))
	assert.ErrorIs(t, err, ErrPrerequisiteNotMet)

	m.TightenRadius(game.MasteryIRadiusKm)
	_, err = g.Grant("world_radar", &m, fullSet(true))
	require.NoError(t, err)
	assert.True(t, m.HasFeature(game.FeatureWorldRadar))
}

func TestGrant_CosmeticIsFree(t *testing.T) {
	g := defaultGraph(t)
	m := game.DefaultModifiers()

	res, err := g.Grant("design.namekian", &m, nil)
	require.NoError(t, err)
	assert.False(t, res.Consumed)
	assert.Equal(t, game.DesignNamekian, m.ActiveDesign)

	// Switching back is allowed and still free.
	res, err = g.Grant("design.classic", &m, fullSet(true))
	require.NoError(t, err)
	assert.False(t, res.Consumed)
	assert.Equal(t, game.DesignClassic, m.ActiveDesign)
}

func TestGrant_UnknownNode(t *testing.T) {
	g := defaultGraph(t)
	m := game.DefaultModifiers()
	_, err := g.Grant("shenron", &m, fullSet(true))
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestGrant_ModifiersAreMonotonic(t *testing.T) {
	g := defaultGraph(t)
	m := game.DefaultModifiers()

	prevRadius := m.CollectionRadiusKm
	prevFeatures := 0
	for _, id := range g.TopoOrder {
		_, _ = g.Grant(id, &m, fullSet(true))
		assert.LessOrEqual(t, m.CollectionRadiusKm, prevRadius, id)
		assert.GreaterOrEqual(t, len(m.Features()), prevFeatures, id)
		prevRadius = m.CollectionRadiusKm
		prevFeatures = len(m.Features())
	}
}

func TestEvaluate(t *testing.T) {
	g := defaultGraph(t)
	m := game.DefaultModifiers()
	m.Unlock(game.FeatureScouter)

	statuses := g.Evaluate(&m, fullSet(false))
	require.Len(t, statuses, len(g.Nodes))

	byID := make(map[NodeID]NodeStatus, len(statuses))
	for _, s := range statuses {
		byID[s.ID] = s
	}

	assert.Equal(t, StatusOwned, byID["design.classic"].Status)
	assert.Equal(t, StatusAvailable, byID["design.capsule"].Status)
	assert.True(t, byID["design.capsule"].Affordable)

	assert.Equal(t, StatusAvailable, byID["race.saiyan"].Status)
	assert.False(t, byID["race.saiyan"].Affordable)

	assert.Equal(t, StatusLocked, byID["race.super_saiyan"].Status)
	assert.Equal(t, "You must be a Saiyan to ascend.", byID["race.super_saiyan"].Reason)

	assert.Equal(t, StatusOwned, byID["scouter"].Status)
	assert.Equal(t, StatusAvailable, byID["custom_zone"].Status)
	assert.Equal(t, StatusLocked, byID["world_radar"].Status)
}

func TestEvaluate_DoesNotMutate(t *testing.T) {
	g := defaultGraph(t)
	m := game.DefaultModifiers()
	before := m.Clone()

	g.Evaluate(&m, fullSet(true))
	assert.Equal(t, before, m)
}
