package notify

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// WebsocketNotifier broadcasts Summary payloads to every connected admin
// dashboard client, the same per-connection buffered-channel / drop-if-full
// shape as the teacher's SSE stream, carried over a websocket instead.
type WebsocketNotifier struct {
	log zerolog.Logger

	mu      sync.RWMutex
	clients map[chan Summary]struct{}
}

// NewWebsocketNotifier builds a WebsocketNotifier.
func NewWebsocketNotifier(log zerolog.Logger) *WebsocketNotifier {
	return &WebsocketNotifier{
		log:     log.With().Str("component", "notify_ws").Logger(),
		clients: make(map[chan Summary]struct{}),
	}
}

// Notify implements Notifier. The send is non-blocking per client: a slow
// dashboard drops summaries rather than stalling the run that produced them.
func (n *WebsocketNotifier) Notify(s Summary) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for ch := range n.clients {
		select {
		case ch <- s:
		default:
			n.log.Warn().Str("execution_id", s.ExecutionID).Msg("dashboard channel full, dropping summary")
		}
	}
}

// ServeHTTP upgrades the connection and streams every future Summary to it
// until the client disconnects.
func (n *WebsocketNotifier) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		n.log.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	ch := make(chan Summary, 32)
	n.register(ch)
	defer n.unregister(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "client disconnected")
			return
		case s := <-ch:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, summaryPayloadOf(s))
			cancel()
			if err != nil {
				n.log.Debug().Err(err).Msg("websocket write failed, closing")
				return
			}
		}
	}
}

func (n *WebsocketNotifier) register(ch chan Summary) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.clients[ch] = struct{}{}
}

func (n *WebsocketNotifier) unregister(ch chan Summary) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.clients, ch)
	close(ch)
}

// summaryPayload is the JSON shape sent over the wire; a plain struct
// rather than Summary itself so time.Duration marshals as milliseconds.
type summaryPayload struct {
	ExecutionID  string         `json:"executionId"`
	Engine       string         `json:"engine"`
	Mode         string         `json:"mode"`
	DryRun       bool           `json:"dryRun"`
	TotalRecords int            `json:"totalRecords"`
	ActionCounts map[string]int `json:"actionCounts"`
	ErrorCount   int            `json:"errorCount"`
	Errors       []string       `json:"errors"`
	StartedAt    time.Time      `json:"startedAt"`
	DurationMS   int64          `json:"durationMs"`
}

func summaryPayloadOf(s Summary) summaryPayload {
	return summaryPayload{
		ExecutionID:  s.ExecutionID,
		Engine:       s.Engine,
		Mode:         s.Mode,
		DryRun:       s.DryRun,
		TotalRecords: s.TotalRecords,
		ActionCounts: s.ActionCounts,
		ErrorCount:   s.ErrorCount,
		Errors:       s.Errors,
		StartedAt:    s.StartedAt,
		DurationMS:   s.Duration.Milliseconds(),
	}
}
