package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"planetgen/internal/logging"
	"planetgen/internal/worldgen/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// connHandler upgrades a request to a WebSocket and runs one
// generate/reapply/editRecompute command loop for its lifetime, the
// worker-command analog of the teacher's websocket.Handler.ServeHTTP
// upgrade-then-ReadPump/WritePump shape, collapsed to a single
// synchronous read loop since commands here are long individual calls
// rather than a steady stream of small game messages.
type connHandler struct {
	eventPub *session.EventPublisher
	store    session.Store
}

func newConnHandler(eventPub *session.EventPublisher, store session.Store) *connHandler {
	return &connHandler{eventPub: eventPub, store: store}
}

func (h *connHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("planetgen: websocket upgrade failed")
		return
	}
	defer conn.Close()

	sessionID := uuid.New().String()
	ctx := logging.WithSessionID(r.Context(), sessionID)
	logger := logging.FromContext(ctx)
	logger.Info().Msg("planetgen: connection established")

	out := &connWriter{conn: conn}

	var publishProgress session.ProgressFunc
	if h.eventPub != nil {
		publishProgress = h.eventPub.Progress(sessionID)
	}
	opts := []session.Option{
		session.WithProgress(func(pct float64, label string) {
			out.write(serverMessage{Type: eventProgress, Data: progressPayload{Pct: pct, Label: label}})
			if publishProgress != nil {
				publishProgress(pct, label)
			}
		}),
	}
	if h.store != nil {
		opts = append(opts, session.WithStore(h.store))
	}
	if h.eventPub != nil {
		opts = append(opts, session.WithEvents(h.eventPub))
	}
	sess := session.New(sessionID, opts...)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			logger.Info().Err(err).Msg("planetgen: connection closed")
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			out.write(serverMessage{Type: eventError, Data: errorPayload{Message: "malformed message envelope"}})
			continue
		}

		h.dispatch(ctx, sess, msg, out)
	}
}

func (h *connHandler) dispatch(ctx context.Context, sess *session.Session, msg clientMessage, w *connWriter) {
	cmdCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	switch msg.Type {
	case commandGenerate:
		var payload generatePayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			w.write(serverMessage{Type: eventError, Data: errorPayload{Message: err.Error()}})
			return
		}
		out, err := sess.Generate(cmdCtx, toInputs(payload))
		if err != nil {
			w.write(serverMessage{Type: eventError, Data: errorPayload{Message: err.Error()}})
			return
		}
		w.write(serverMessage{Type: eventDone, Data: toOutputPayload(out)})

	case commandReapply:
		var payload postParamsPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			w.write(serverMessage{Type: eventError, Data: errorPayload{Message: err.Error()}})
			return
		}
		out, err := sess.Reapply(cmdCtx, toPostParams(payload))
		if err != nil {
			w.write(serverMessage{Type: eventError, Data: errorPayload{Message: err.Error()}})
			return
		}
		w.write(serverMessage{Type: eventReapplyDone, Data: toOutputPayload(out)})

	case commandEditRecompute:
		var payload editRecomputePayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			w.write(serverMessage{Type: eventError, Data: errorPayload{Message: err.Error()}})
			return
		}
		plateIsOcean, err := stringKeysToInt(payload.PlateIsOcean)
		if err != nil {
			w.write(serverMessage{Type: eventError, Data: errorPayload{Message: err.Error()}})
			return
		}
		plateDensity, err := stringKeysToIntFloat(payload.PlateDensity)
		if err != nil {
			w.write(serverMessage{Type: eventError, Data: errorPayload{Message: err.Error()}})
			return
		}
		out, err := sess.EditRecompute(cmdCtx, plateIsOcean, plateDensity, toPostParams(payload.PostParams))
		if err != nil {
			w.write(serverMessage{Type: eventError, Data: errorPayload{Message: err.Error()}})
			return
		}
		w.write(serverMessage{Type: eventEditDone, Data: toOutputPayload(out)})

	default:
		w.write(serverMessage{Type: eventError, Data: errorPayload{Message: "unknown command type: " + msg.Type}})
	}
}

func toInputs(p generatePayload) session.Inputs {
	return session.Inputs{
		Seed:             p.Seed,
		N:                p.N,
		P:                p.P,
		Jitter:           p.Jitter,
		NMag:             p.NMag,
		NumContinents:    p.NumContinents,
		Smoothing:        p.Smoothing,
		GlacialErosion:   p.GlacialErosion,
		HydraulicErosion: p.HydraulicErosion,
		ThermalErosion:   p.ThermalErosion,
		RidgeSharpening:  p.RidgeSharpening,
		ToggledIndices:   p.ToggledIndices,
	}
}

func toPostParams(p postParamsPayload) session.PostParams {
	return session.PostParams{
		Smoothing:        p.Smoothing,
		GlacialErosion:   p.GlacialErosion,
		HydraulicErosion: p.HydraulicErosion,
		ThermalErosion:   p.ThermalErosion,
		RidgeSharpening:  p.RidgeSharpening,
	}
}

func stringKeysToInt(m map[string]bool) (map[int]bool, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[int]bool, len(m))
	for k, v := range m {
		idx, err := strconv.Atoi(k)
		if err != nil {
			return nil, err
		}
		out[idx] = v
	}
	return out, nil
}

func stringKeysToIntFloat(m map[string]float64) (map[int]float64, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[int]float64, len(m))
	for k, v := range m {
		idx, err := strconv.Atoi(k)
		if err != nil {
			return nil, err
		}
		out[idx] = v
	}
	return out, nil
}

// connWriter writes outbound frames to a single WebSocket connection.
// It holds no lock of its own: gorilla/websocket connections aren't safe
// for concurrent writers, and every write here, including progress
// events emitted from inside a running command, happens on the
// connection's single read-loop goroutine.
type connWriter struct {
	conn *websocket.Conn
}

func (w *connWriter) write(msg serverMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("planetgen: marshal outbound message")
		return
	}
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Error().Err(err).Msg("planetgen: write outbound message")
	}
}
