package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/phills76/Dragon-Ball-Radar-2/internal/session"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/ws"
)

// opTimeout bounds how long a message waits on its session.
const opTimeout = 5 * time.Second

// Router dispatches incoming messages to the appropriate handler.
type Router struct {
	play *PlayHandler

	// joined tracks client ID -> save key.
	joined map[string]string
	mu     sync.RWMutex
}

// NewRouter creates a new message router. defaultKey is used when a client
// says hello without naming a save.
func NewRouter(sessions *session.Manager, defaultKey string) *Router {
	r := &Router{
		joined: make(map[string]string),
	}
	r.play = NewPlayHandler(sessions, r, defaultKey)
	return r
}

// RegisterClient maps a client ID to a save key.
func (r *Router) RegisterClient(clientID, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joined[clientID] = key
}

// UnregisterClient removes a client's save key mapping.
func (r *Router) UnregisterClient(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.joined, clientID)
}

// GetSaveKey returns the save key for a client, or empty string if not joined.
func (r *Router) GetSaveKey(clientID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.joined[clientID]
}

// HandleMessage parses and routes an incoming client message.
func (r *Router) HandleMessage(cm *ws.ClientMessage) {
	var msg ws.Message
	if err := json.Unmarshal(cm.Data, &msg); err != nil {
		slog.Warn("invalid message format", "client", cm.Client.ID, "error", err)
		cm.Client.SendMessage(ws.NewErrorMessage("invalid message format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	// Hello is always allowed
	if msg.Type == ws.TypeHello {
		r.play.HandleHello(ctx, cm.Client, msg)
		return
	}

	// Session guard: everything else needs a joined session
	sess := r.play.sessionFor(cm.Client)
	if sess == nil {
		cm.Client.SendMessage(ws.NewErrorMessage("hello required"))
		return
	}

	switch msg.Type {
	case ws.TypeUpdatePosition:
		r.play.HandleUpdatePosition(ctx, cm.Client, sess, msg)
	case ws.TypeSetScan:
		r.play.HandleSetScan(ctx, cm.Client, sess, msg)
	case ws.TypeRefreshTargets:
		r.play.HandleRefreshTargets(ctx, cm.Client, sess)
	case ws.TypeRelocateTarget:
		r.play.HandleRelocateTarget(ctx, cm.Client, sess, msg)
	case ws.TypeGrantWish:
		r.play.HandleGrantWish(ctx, cm.Client, sess, msg)
	case ws.TypeRadar:
		r.play.HandleRadar(ctx, cm.Client, sess, msg)
	case ws.TypeListWishes:
		r.play.HandleListWishes(ctx, cm.Client, sess)

	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", cm.Client.ID)
		cm.Client.SendMessage(ws.NewErrorMessage("unknown message type: " + msg.Type))
	}
}

// HandleDisconnect handles client disconnection.
func (r *Router) HandleDisconnect(client *ws.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	r.play.HandleDisconnect(ctx, client)
}
