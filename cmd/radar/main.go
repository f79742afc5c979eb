// Command radar is a terminal client for the radar server. Arrow keys move
// the player, r rescans, z cycles the zoom and w lists wishes.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"

	"github.com/phills76/Dragon-Ball-Radar-2/internal/game"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/geo"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/ws"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "server websocket URL")
	saveKey := flag.String("save", "", "save key (server default when empty)")
	lat := flag.Float64("lat", 37.5665, "starting latitude")
	lng := flag.Float64("lng", 126.9780, "starting longitude")
	stepKm := flag.Float64("step", 0.02, "distance moved per key press in km")
	flag.Parse()

	// The screen owns stdout; keep logs out of the way.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := run(*url, *saveKey, geo.Coordinate{Lat: *lat, Lng: *lng}, *stepKm); err != nil {
		fmt.Fprintln(os.Stderr, "radar:", err)
		os.Exit(1)
	}
}

func run(url, saveKey string, start geo.Coordinate, stepKm float64) error {
	conn, _, err := websocket.DefaultDialer.DialContext(context.Background(), url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()

	c := &radarClient{
		conn:     conn,
		screen:   screen,
		position: start,
		stepKm:   stepKm,
	}

	go c.readLoop()

	c.send(ws.TypeHello, map[string]string{"save_key": saveKey})
	c.sendPosition()
	c.requestRadar()
	c.render()

	for {
		switch ev := screen.PollEvent().(type) {
		case *tcell.EventKey:
			if !c.handleKey(ev) {
				return nil
			}
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventInterrupt:
			c.apply(ev.Data())
		case nil:
			return nil
		}
		c.render()
	}
}

// radarClient owns the connection writer and all screen state. Only the
// event loop goroutine touches it, apart from readLoop reading conn.
type radarClient struct {
	conn   *websocket.Conn
	screen tcell.Screen

	position geo.Coordinate
	stepKm   float64
	zoom     game.ZoomStep

	state   *stateView
	radar   *game.RadarView
	status  string
	lastErr string
}

// stateView is the part of the server's state message the client shows.
type stateView struct {
	SaveKey    string          `json:"save_key"`
	Loading    bool            `json:"loading"`
	FoundCount int             `json:"found_count"`
	WishReady  bool            `json:"wish_ready"`
	Features   []string        `json:"features"`
	Scan       game.ScanParams `json:"scan"`
	Modifiers  game.Modifiers  `json:"modifiers"`
}

type wishRow struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Status string `json:"status"`
}

func (c *radarClient) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.screen.PostEvent(tcell.NewEventInterrupt(err))
			return
		}
		var msg ws.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		c.screen.PostEvent(tcell.NewEventInterrupt(msg))
	}
}

func (c *radarClient) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		c.move(c.stepKm, 0)
	case tcell.KeyDown:
		c.move(-c.stepKm, 0)
	case tcell.KeyRight:
		c.move(0, c.stepKm)
	case tcell.KeyLeft:
		c.move(0, -c.stepKm)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case 'r':
			c.send(ws.TypeRefreshTargets, nil)
		case 'z':
			c.zoom = game.NextZoom(c.zoom)
			c.requestRadar()
		case 'w':
			c.send(ws.TypeListWishes, nil)
		}
	}
	return true
}

func (c *radarClient) move(northKm, eastKm float64) {
	c.position = offsetBy(c.position, northKm, eastKm)
	c.sendPosition()
}

func (c *radarClient) apply(data any) {
	switch v := data.(type) {
	case error:
		c.lastErr = "connection lost: " + v.Error()
	case ws.Message:
		c.applyMessage(v)
	}
}

func (c *radarClient) applyMessage(msg ws.Message) {
	switch msg.Type {
	case ws.TypeState:
		var s stateView
		if json.Unmarshal(msg.Data, &s) == nil {
			c.state = &s
			c.requestRadar()
		}
	case ws.TypeRadar:
		var rv game.RadarView
		if json.Unmarshal(msg.Data, &rv) == nil {
			c.radar = &rv
		}
	case ws.TypeCollected:
		var p struct {
			IDs []int `json:"ids"`
		}
		if json.Unmarshal(msg.Data, &p) == nil {
			c.status = fmt.Sprintf("collected %v", p.IDs)
		}
	case ws.TypeWishReady:
		c.status = "all seven found: make a wish"
	case ws.TypeWishes:
		var p struct {
			Wishes []wishRow `json:"wishes"`
		}
		if json.Unmarshal(msg.Data, &p) == nil {
			c.status = summarizeWishes(p.Wishes)
		}
	case ws.TypeError:
		var e ws.ErrorMessage
		if json.Unmarshal(msg.Data, &e) == nil {
			c.lastErr = e.Message
		}
	}
}

func (c *radarClient) send(msgType string, payload any) {
	msg := ws.Message{Type: msgType}
	if payload != nil {
		var err error
		if msg, err = ws.NewMessage(msgType, payload); err != nil {
			c.lastErr = err.Error()
			return
		}
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		c.lastErr = "send failed: " + err.Error()
	}
}

func (c *radarClient) sendPosition() {
	c.send(ws.TypeUpdatePosition, map[string]float64{
		"lat":        c.position.Lat,
		"lng":        c.position.Lng,
		"accuracy_m": 5,
	})
}

func (c *radarClient) requestRadar() {
	c.send(ws.TypeRadar, map[string]int{"zoom": int(c.zoom)})
}
