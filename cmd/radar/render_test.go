package main

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"

	"github.com/phills76/Dragon-Ball-Radar-2/internal/game"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/geo"
)

func TestFaceCell(t *testing.T) {
	tests := []struct {
		name  string
		p     geo.ScreenPoint
		wantX int
		wantY int
	}{
		{"center", geo.ScreenPoint{X: 0.5, Y: 0.5}, 40, 12},
		{"east edge", geo.ScreenPoint{X: 1, Y: 0.5}, 60, 12},
		{"north edge", geo.ScreenPoint{X: 0.5, Y: 0}, 40, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := faceCell(tt.p, 40, 12, 10)
			assert.Equal(t, tt.wantX, x)
			assert.Equal(t, tt.wantY, y)
		})
	}
}

func TestBlipRune(t *testing.T) {
	r, style := blipRune(game.Blip{StarCount: 4})
	assert.Equal(t, '4', r)
	assert.Equal(t, styleBlip, style)

	r, style = blipRune(game.Blip{StarCount: 4, Found: true})
	assert.Equal(t, '*', r)
	assert.Equal(t, styleFound, style)
}

func TestOffsetBy(t *testing.T) {
	start := geo.Coordinate{Lat: 0, Lng: 0}
	moved := offsetBy(start, 1, 0)
	assert.InDelta(t, 1, geo.HaversineKm(start, moved), 0.01)

	moved = offsetBy(start, 0, -1)
	assert.Less(t, moved.Lng, 0.0)
	assert.InDelta(t, 0, moved.Lat, 1e-12)
}

func TestSummarizeWishes(t *testing.T) {
	assert.Equal(t, "no wishes available", summarizeWishes(nil))
	assert.Equal(t, "available: design.capsule, scouter", summarizeWishes([]wishRow{
		{ID: "design.capsule", Status: "available"},
		{ID: "race.saiyan", Status: "locked"},
		{ID: "scouter", Status: "available"},
	}))
}

func TestDrawText_SimulationScreen(t *testing.T) {
	s := tcell.NewSimulationScreen("")
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	defer s.Fini()

	drawText(s, 1, 0, styleDefault, "hi")
	r, _, _, _ := s.GetContent(1, 0)
	assert.Equal(t, 'h', r)
	r, _, _, _ = s.GetContent(2, 0)
	assert.Equal(t, 'i', r)
}
