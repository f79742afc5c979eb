package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/phills76/Dragon-Ball-Radar-2/internal/game"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/geo"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/progression"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/session"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/ws"
)

// PlayHandler maps protocol messages onto session operations.
type PlayHandler struct {
	sessions   *session.Manager
	router     *Router
	defaultKey string
}

// NewPlayHandler creates a new play handler.
func NewPlayHandler(sessions *session.Manager, router *Router, defaultKey string) *PlayHandler {
	return &PlayHandler{sessions: sessions, router: router, defaultKey: defaultKey}
}

type helloRequest struct {
	SaveKey string `json:"save_key"`
}

type sessionInfo struct {
	SaveKey  string `json:"save_key"`
	ClientID string `json:"client_id"`
}

type updatePositionRequest struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	AccuracyM float64 `json:"accuracy_m"`
}

type setScanRequest struct {
	RangeKm float64         `json:"range_km"`
	Center  *geo.Coordinate `json:"center,omitempty"`
}

type relocateTargetRequest struct {
	ID int `json:"id"`
}

type grantWishRequest struct {
	NodeID string `json:"node_id"`
}

type wishGrantedResponse struct {
	NodeID   string `json:"node_id"`
	Label    string `json:"label"`
	Consumed bool   `json:"consumed"`
}

type radarRequest struct {
	Zoom int `json:"zoom"`
}

type collectedPayload struct {
	IDs []int `json:"ids"`
}

type wishesResponse struct {
	Wishes []progression.NodeStatus `json:"wishes"`
}

// HandleHello joins the client to a save, leaving any previous one.
func (h *PlayHandler) HandleHello(ctx context.Context, client *ws.Client, msg ws.Message) {
	var req helloRequest
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			client.SendMessage(ws.NewErrorMessage("invalid hello data"))
			return
		}
	}
	key := req.SaveKey
	if key == "" {
		key = h.defaultKey
	}

	if prev := h.router.GetSaveKey(client.ID); prev != "" {
		if prev == key {
			h.sendSession(client, key)
			return
		}
		h.leave(ctx, client, prev)
	}

	if _, err := h.sessions.Join(ctx, key, client.ID, forwardEvents(client)); err != nil {
		slog.Warn("join failed", "client", client.ID, "session", key, "error", err)
		client.SendMessage(ws.NewErrorMessage(errorText(err)))
		return
	}
	h.router.RegisterClient(client.ID, key)
	slog.Info("client joined session", "client", client.ID, "session", key)
	h.sendSession(client, key)
}

// HandleUpdatePosition forwards a position fix.
func (h *PlayHandler) HandleUpdatePosition(ctx context.Context, client *ws.Client, sess *session.Session, msg ws.Message) {
	var req updatePositionRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		client.SendMessage(ws.NewErrorMessage("invalid position data"))
		return
	}

	pos := game.Position{
		Coordinate:     geo.Coordinate{Lat: req.Lat, Lng: req.Lng},
		AccuracyMeters: req.AccuracyM,
	}
	if _, err := sess.UpdatePlayerPosition(ctx, pos); err != nil {
		client.SendMessage(ws.NewErrorMessage(errorText(err)))
	}
}

// HandleSetScan replaces the scan parameters.
func (h *PlayHandler) HandleSetScan(ctx context.Context, client *ws.Client, sess *session.Session, msg ws.Message) {
	var req setScanRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		client.SendMessage(ws.NewErrorMessage("invalid scan data"))
		return
	}

	params := game.ScanParams{RangeKm: req.RangeKm, CenterOverride: req.Center}
	if err := sess.SetScanParameters(ctx, params); err != nil {
		client.SendMessage(ws.NewErrorMessage(errorText(err)))
	}
}

// HandleRefreshTargets starts a new scan.
func (h *PlayHandler) HandleRefreshTargets(ctx context.Context, client *ws.Client, sess *session.Session) {
	if err := sess.RefreshTargets(ctx); err != nil {
		client.SendMessage(ws.NewErrorMessage(errorText(err)))
	}
}

// HandleRelocateTarget moves one target.
func (h *PlayHandler) HandleRelocateTarget(ctx context.Context, client *ws.Client, sess *session.Session, msg ws.Message) {
	var req relocateTargetRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		client.SendMessage(ws.NewErrorMessage("invalid relocate data"))
		return
	}
	if err := sess.RelocateTarget(ctx, req.ID); err != nil {
		client.SendMessage(ws.NewErrorMessage(errorText(err)))
	}
}

// HandleGrantWish grants a wish and confirms it to the caller.
func (h *PlayHandler) HandleGrantWish(ctx context.Context, client *ws.Client, sess *session.Session, msg ws.Message) {
	var req grantWishRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.NodeID == "" {
		client.SendMessage(ws.NewErrorMessage("invalid wish data"))
		return
	}

	res, err := sess.GrantWish(ctx, progression.NodeID(req.NodeID))
	if err != nil {
		client.SendMessage(ws.NewErrorMessage(errorText(err)))
		return
	}

	resp, err := ws.NewMessage(ws.TypeWishGranted, wishGrantedResponse{
		NodeID:   string(res.Node.ID),
		Label:    res.Node.Label,
		Consumed: res.Consumed,
	})
	if err != nil {
		slog.Error("failed to create wish_granted message", "error", err)
		return
	}
	client.SendMessage(resp)
}

// HandleRadar replies with the radar view for a zoom step.
func (h *PlayHandler) HandleRadar(ctx context.Context, client *ws.Client, sess *session.Session, msg ws.Message) {
	var req radarRequest
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			client.SendMessage(ws.NewErrorMessage("invalid radar data"))
			return
		}
	}

	view, err := sess.Radar(ctx, game.ZoomStep(req.Zoom))
	if err != nil {
		client.SendMessage(ws.NewErrorMessage(errorText(err)))
		return
	}
	resp, err := ws.NewMessage(ws.TypeRadar, view)
	if err != nil {
		slog.Error("failed to create radar message", "error", err)
		return
	}
	client.SendMessage(resp)
}

// HandleListWishes replies with every wish and its status.
func (h *PlayHandler) HandleListWishes(ctx context.Context, client *ws.Client, sess *session.Session) {
	wishes, err := sess.Wishes(ctx)
	if err != nil {
		client.SendMessage(ws.NewErrorMessage(errorText(err)))
		return
	}
	resp, err := ws.NewMessage(ws.TypeWishes, wishesResponse{Wishes: wishes})
	if err != nil {
		slog.Error("failed to create wishes message", "error", err)
		return
	}
	client.SendMessage(resp)
}

// HandleDisconnect detaches the client from its session.
func (h *PlayHandler) HandleDisconnect(ctx context.Context, client *ws.Client) {
	if key := h.router.GetSaveKey(client.ID); key != "" {
		h.leave(ctx, client, key)
	}
}

func (h *PlayHandler) leave(ctx context.Context, client *ws.Client, key string) {
	if err := h.sessions.Leave(ctx, key, client.ID); err != nil {
		slog.Warn("leave failed", "client", client.ID, "session", key, "error", err)
	}
	h.router.UnregisterClient(client.ID)
}

func (h *PlayHandler) sessionFor(client *ws.Client) *session.Session {
	key := h.router.GetSaveKey(client.ID)
	if key == "" {
		return nil
	}
	return h.sessions.Get(key)
}

func (h *PlayHandler) sendSession(client *ws.Client, key string) {
	msg, err := ws.NewMessage(ws.TypeSession, sessionInfo{SaveKey: key, ClientID: client.ID})
	if err != nil {
		slog.Error("failed to create session message", "error", err)
		return
	}
	client.SendMessage(msg)
}

// forwardEvents turns session events into messages for client. It runs on
// the session goroutine; SendMessage never blocks.
func forwardEvents(client *ws.Client) func(session.Event) {
	return func(ev session.Event) {
		var (
			msg ws.Message
			err error
		)
		switch ev.Type {
		case session.EventState:
			msg, err = ws.NewMessage(ws.TypeState, ev.State)
		case session.EventCollected:
			msg, err = ws.NewMessage(ws.TypeCollected, collectedPayload{IDs: ev.Collected})
		case session.EventWishReady:
			msg, err = ws.NewMessage(ws.TypeWishReady, struct{}{})
		default:
			return
		}
		if err != nil {
			slog.Error("failed to create event message", "type", ev.Type, "error", err)
			return
		}
		client.SendMessage(msg)
	}
}

// errorText is the user-visible text for an operation error.
func errorText(err error) string {
	var perr *progression.PrerequisiteError
	switch {
	case errors.As(err, &perr):
		return perr.Reason
	case errors.Is(err, progression.ErrInsufficientTargets):
		return "collect all seven dragon balls first"
	case errors.Is(err, session.ErrNoEffectiveCenter):
		return "location required"
	case errors.Is(err, session.ErrClosed):
		return "session closed"
	default:
		return err.Error()
	}
}
