package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/phills76/Dragon-Ball-Radar-2/internal/game"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/geo"
)

var (
	styleDefault = tcell.StyleDefault
	styleFace    = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleBlip    = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleFound   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	stylePlayer  = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleError   = tcell.StyleDefault.Foreground(tcell.ColorRed)
)

// statusLines is how many rows the header uses.
const statusLines = 3

func (c *radarClient) render() {
	s := c.screen
	s.Clear()
	w, h := s.Size()

	c.drawHeader(w)

	switch {
	case c.radar == nil || !c.radar.HasCenter:
		drawText(s, 0, statusLines+1, styleDefault, "waiting for a location fix...")
	case c.radar.MapView:
		c.drawMap(statusLines + 1)
	default:
		c.drawFace(w, h-statusLines-1, statusLines+1)
	}

	s.Show()
}

func (c *radarClient) drawHeader(w int) {
	s := c.screen
	line := fmt.Sprintf("pos %.5f, %.5f", c.position.Lat, c.position.Lng)
	if c.state != nil {
		line = fmt.Sprintf("%s | save %s | found %d/%d | race %s | design %s",
			line, c.state.SaveKey, c.state.FoundCount, game.TargetCount,
			c.state.Modifiers.ActiveRace, c.state.Modifiers.ActiveDesign)
		if c.state.Loading {
			line += " | scanning..."
		}
	}
	drawText(s, 0, 0, styleDefault, truncate(line, w))

	if c.radar != nil {
		zoom := "map"
		if !c.radar.MapView {
			zoom = fmt.Sprintf("%.2f km", c.radar.RangeKm)
		}
		drawText(s, 0, 1, styleDefault, truncate("range "+zoom+" | arrows move, r scan, z zoom, w wishes, q quit", w))
	}

	switch {
	case c.lastErr != "":
		drawText(s, 0, 2, styleError, truncate(c.lastErr, w))
	case c.status != "":
		drawText(s, 0, 2, styleDefault, truncate(c.status, w))
	}
}

// drawFace draws the circular radar in a w x h box starting at row top.
// Terminal cells are about twice as tall as wide, so x is scaled by 2.
func (c *radarClient) drawFace(w, h, top int) {
	s := c.screen
	radius := math.Min(float64(w)/4, float64(h)/2) - 1
	if radius < 2 {
		return
	}
	cx := float64(w) / 2
	cy := float64(top) + float64(h)/2

	for deg := 0; deg < 360; deg += 3 {
		a := float64(deg) * math.Pi / 180
		s.SetContent(int(cx+2*radius*math.Cos(a)), int(cy+radius*math.Sin(a)), '.', nil, styleFace)
	}
	s.SetContent(int(cx), int(cy), '+', nil, stylePlayer)

	for _, b := range c.radar.Blips {
		if b.Point == nil {
			continue
		}
		x, y := faceCell(*b.Point, cx, cy, radius)
		r, style := blipRune(b)
		s.SetContent(x, y, r, nil, style)
		if b.DistanceKm != nil {
			drawText(s, x+2, y, styleFound, fmt.Sprintf("%.2fkm", *b.DistanceKm))
		}
	}
}

func (c *radarClient) drawMap(top int) {
	s := c.screen
	for i, b := range c.radar.Blips {
		r, style := blipRune(b)
		line := fmt.Sprintf("%c %-24s %9.5f, %10.5f", r, b.DisplayName, b.Coordinate.Lat, b.Coordinate.Lng)
		if b.DistanceKm != nil {
			line += fmt.Sprintf("  %.2f km", *b.DistanceKm)
		}
		drawText(s, 0, top+i, style, line)
	}
}

// faceCell maps a normalized radar point to a terminal cell around (cx, cy).
func faceCell(p geo.ScreenPoint, cx, cy, radius float64) (int, int) {
	x := cx + (p.X-0.5)*4*radius
	y := cy + (p.Y-0.5)*2*radius
	return int(math.Round(x)), int(math.Round(y))
}

func blipRune(b game.Blip) (rune, tcell.Style) {
	if b.Found {
		return '*', styleFound
	}
	if b.StarCount >= 1 && b.StarCount <= 9 {
		return rune('0' + b.StarCount), styleBlip
	}
	return 'o', styleBlip
}

func summarizeWishes(rows []wishRow) string {
	parts := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Status == "available" {
			parts = append(parts, r.ID)
		}
	}
	if len(parts) == 0 {
		return "no wishes available"
	}
	return "available: " + strings.Join(parts, ", ")
}

// offsetBy moves c by the given north and east distances.
func offsetBy(c geo.Coordinate, northKm, eastKm float64) geo.Coordinate {
	scale := math.Max(math.Cos(c.Lat*math.Pi/180), 1e-6)
	return geo.Coordinate{
		Lat: math.Max(-90, math.Min(90, c.Lat+northKm/geo.KmPerDegree)),
		Lng: c.Lng + eastKm/(geo.KmPerDegree*scale),
	}
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	return string(r[:w])
}
