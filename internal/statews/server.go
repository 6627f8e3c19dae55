package statews

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"reptimer/internal/core/timekeeper"

	"github.com/gorilla/websocket"
)

const (
	typeStateInit  = "state_init"
	typeTimerState = "timer_state"
)

// SnapshotSource reports the engine's current state.
type SnapshotSource interface {
	Snapshot() (timekeeper.ActiveTimerState, bool)
}

type envelope struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

type wsTimer struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	DurationSeconds int       `json:"duration_seconds"`
	InfiniteRepeat  bool      `json:"infinite_repeat"`
	RepeatCount     int       `json:"repeat_count"`
	DelaySeconds    int       `json:"delay_seconds"`
	Tone            string    `json:"tone"`
	Volume          float64   `json:"volume"`
	CreatedAt       time.Time `json:"created_at"`
}

type wsTimerState struct {
	Phase            string   `json:"phase"`
	ResumePhase      string   `json:"resume_phase,omitempty"`
	SecondsRemaining int      `json:"seconds_remaining"`
	CurrentRep       int      `json:"current_rep"`
	TotalReps        int      `json:"total_reps"`
	Progress         float64  `json:"progress"`
	Timer            *wsTimer `json:"timer,omitempty"`
}

func toWire(state timekeeper.ActiveTimerState) wsTimerState {
	payload := wsTimerState{
		Phase:            string(state.Phase.Kind()),
		SecondsRemaining: state.SecondsRemaining,
		CurrentRep:       state.CurrentRep,
		TotalReps:        state.TotalReps,
		Progress:         state.Progress(),
	}
	if target, ok := state.Phase.ResumeTarget(); ok {
		payload.ResumePhase = string(target)
	}
	if state.Phase.Kind() != timekeeper.PhaseIdle {
		config := state.Config
		payload.Timer = &wsTimer{
			ID:              config.ID,
			Name:            config.Name,
			DurationSeconds: config.DurationSeconds,
			InfiniteRepeat:  config.InfiniteRepeat,
			RepeatCount:     config.RepeatCount,
			DelaySeconds:    config.DelaySeconds,
			Tone:            config.ToneID,
			Volume:          config.Volume,
			CreatedAt:       config.CreatedAt,
		}
	}
	return payload
}

func encodeState(kind string, state timekeeper.ActiveTimerState) ([]byte, error) {
	ts := state.At.UTC()
	if state.At.IsZero() {
		ts = time.Now().UTC()
	}
	return json.Marshal(envelope{Type: kind, Ts: &ts, Data: toWire(state)})
}

// Server exposes engine snapshots over websocket.
type Server struct {
	logger *slog.Logger
	hub    *Hub
	source SnapshotSource
}

// ServerConfig configures a Server.
type ServerConfig struct {
	Hub HubConfig
}

// NewServer constructs the server components. Start Hub().Run(ctx) and
// RunBroadcaster alongside it.
func NewServer(logger *slog.Logger, source SnapshotSource, cfg ServerConfig) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger: logger,
		hub:    NewHub(logger, cfg.Hub),
		source: source,
	}
}

func (s *Server) Hub() *Hub { return s.hub }

// Register installs the websocket handler on mux at path.
func (s *Server) Register(mux *http.ServeMux, path string) {
	if mux == nil {
		return
	}
	mux.HandleFunc(path, s.handleStateWS)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStateWS upgrades the connection and queues state_init ahead of
// any broadcast the client may receive.
func (s *Server) handleStateWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	client := NewClient(s.hub, conn, r.RemoteAddr, s.logger)

	if s.source != nil {
		state, _ := s.source.Snapshot()
		if msg, err := encodeState(typeStateInit, state); err == nil {
			client.send <- msg
		} else {
			s.logger.Warn("ws state_init marshal failed", "error", err)
		}
	}

	s.hub.register <- client

	// Pumps outlive the request; the hub and socket errors end them.
	go client.writePump()
	go client.readPump()
}

// RunBroadcaster forwards every snapshot from sub to the hub until ctx is
// canceled or the subscription closes. Snapshots are never coalesced.
func RunBroadcaster(ctx context.Context, hub *Hub, sub *timekeeper.Subscription, logger *slog.Logger) {
	if hub == nil || sub == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	events := sub.Events()

	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-events:
			if !ok {
				logger.Info("state ws broadcaster stopping (source ended)")
				return
			}
			msg, err := encodeState(typeTimerState, state)
			if err != nil {
				logger.Warn("state ws marshal failed", "error", err, "phase", state.Phase.String())
				continue
			}
			hub.BroadcastBytes(msg)
		}
	}
}
