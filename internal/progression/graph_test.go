package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGraph(t *testing.T) {
	g, err := DefaultGraph()
	require.NoError(t, err)

	assert.Len(t, g.Nodes, 13)
	assert.Len(t, g.TopoOrder, len(g.Nodes))

	tests := []struct {
		node NodeID
		deps []NodeID
	}{
		{"design.capsule", nil},
		{"race.saiyan", nil},
		{"race.super_saiyan", []NodeID{"race.saiyan"}},
		{"race.super_saiyan_2", []NodeID{"race.super_saiyan"}},
		{"mastery.1", nil},
		{"mastery.2", []NodeID{"mastery.1"}},
		{"mastery.3", []NodeID{"mastery.2"}},
		{"scouter", nil},
		{"custom_zone", []NodeID{"scouter"}},
		{"world_radar", []NodeID{"custom_zone", "mastery.1"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.node), func(t *testing.T) {
			assert.Equal(t, tt.deps, g.DependsOn[tt.node])
		})
	}
}

func TestDefaultGraph_TopoOrderPutsDependenciesFirst(t *testing.T) {
	g, err := DefaultGraph()
	require.NoError(t, err)

	pos := make(map[NodeID]int, len(g.TopoOrder))
	for i, id := range g.TopoOrder {
		pos[id] = i
	}
	for id, deps := range g.DependsOn {
		for _, dep := range deps {
			assert.Less(t, pos[dep], pos[id], "%s before %s", dep, id)
		}
	}
}

func TestNewGraph_CycleDetected(t *testing.T) {
	nodes := []*Node{
		{ID: "a", Kind: KindGated, Unmet: "need b", OneTime: true,
			Requires: Requirement{Features: []string{"b"}}, Effect: Effect{Feature: "a"}},
		{ID: "b", Kind: KindGated, Unmet: "need a", OneTime: true,
			Requires: Requirement{Features: []string{"a"}}, Effect: Effect{Feature: "b"}},
	}
	_, err := NewGraph(nodes)
	assert.ErrorIs(t, err, ErrCycleDetected)
}

func TestNewGraph_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		nodes []*Node
		err   error
	}{
		{
			name:  "missing id",
			nodes: []*Node{{Kind: KindCosmetic, Effect: Effect{Design: "capsule"}}},
			err:   ErrInvalidNode,
		},
		{
			name: "duplicate id",
			nodes: []*Node{
				{ID: "x", Kind: KindCosmetic, Effect: Effect{Design: "capsule"}},
				{ID: "x", Kind: KindCosmetic, Effect: Effect{Design: "namekian"}},
			},
			err: ErrInvalidNode,
		},
		{
			name:  "no effect",
			nodes: []*Node{{ID: "x", Kind: KindGated}},
			err:   ErrInvalidNode,
		},
		{
			name:  "unknown design",
			nodes: []*Node{{ID: "x", Kind: KindCosmetic, Effect: Effect{Design: "tron"}}},
			err:   ErrInvalidNode,
		},
		{
			name:  "unknown kind",
			nodes: []*Node{{ID: "x", Kind: "secret", Effect: Effect{Design: "capsule"}}},
			err:   ErrInvalidNode,
		},
		{
			name: "gated cosmetic",
			nodes: []*Node{{ID: "x", Kind: KindCosmetic, Unmet: "no",
				Requires: Requirement{Race: "saiyan"}, Effect: Effect{Design: "capsule"}}},
			err: ErrInvalidNode,
		},
		{
			name:  "cosmetic changes race",
			nodes: []*Node{{ID: "x", Kind: KindCosmetic, Effect: Effect{Race: "saiyan"}}},
			err:   ErrInvalidNode,
		},
		{
			name: "gated without unmet message",
			nodes: []*Node{{ID: "x", Kind: KindGated,
				Requires: Requirement{Features: []string{"y"}}, Effect: Effect{Feature: "x"}}},
			err: ErrInvalidNode,
		},
		{
			name: "nobody grants the race",
			nodes: []*Node{{ID: "x", Kind: KindGated, Unmet: "no",
				Requires: Requirement{Race: "super_saiyan"}, Effect: Effect{Feature: "x"}}},
			err: ErrUnsatisfiable,
		},
		{
			name: "nobody grants the radius",
			nodes: []*Node{{ID: "x", Kind: KindGated, Unmet: "no",
				Requires: Requirement{RadiusAtMostKm: 0.01}, Effect: Effect{Feature: "x"}}},
			err: ErrUnsatisfiable,
		},
		{
			name: "self is not a producer",
			nodes: []*Node{{ID: "x", Kind: KindGated, Unmet: "no", OneTime: true,
				Requires: Requirement{Features: []string{"x"}}, Effect: Effect{Feature: "x"}}},
			err: ErrUnsatisfiable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGraph(tt.nodes)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestLoadGraph_YAML(t *testing.T) {
	data := []byte(`
nodes:
  - id: sensor
    kind: gated
    label: Sensor
    one_time: true
    effect: {feature: sensor}
  - id: sensor.plus
    kind: gated
    label: Sensor+
    unmet: Get the sensor first.
    requires: {features: [sensor]}
    effect: {radius_km: 0.08}
`)
	g, err := LoadGraph(data)
	require.NoError(t, err)

	assert.Equal(t, []NodeID{"sensor", "sensor.plus"}, g.TopoOrder)
	assert.Equal(t, "Get the sensor first.", g.GetNode("sensor.plus").Unmet)
	assert.Nil(t, g.GetNode("missing"))
}

func TestLoadGraph_BadYAML(t *testing.T) {
	_, err := LoadGraph([]byte(`nodes: "not a list"`))
	assert.Error(t, err)
}

func TestLoadGraphFile_EmptyPathUsesDefault(t *testing.T) {
	g, err := LoadGraphFile("")
	require.NoError(t, err)
	assert.NotNil(t, g.GetNode("scouter"))
}

func TestLoadGraphFile_Missing(t *testing.T) {
	_, err := LoadGraphFile(t.TempDir() + "/nope.yaml")
	assert.Error(t, err)
}
