// internal/httpserver/ws.go
//
// Live run channel: GET /runs/{id}/ws.
//
// Frames are JSON envelopes {t, reqId, p}.
//   in:  PING, GET, TICK {elapsedMs}, ACTION {type, index, letter, mode}
//   out: PONG, STATE <run view>, ERROR {code, msg, run?}
//
// One reader goroutine applies frames in order through store.Update; one
// writer goroutine drains the send buffer and keeps the connection alive
// with pings.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/heatstack/internal/game"
	"github.com/robalobadob/heatstack/internal/store"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 120 * time.Second
	wsPingPeriod = 30 * time.Second
	wsSendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		o := r.Header.Get("Origin")
		return o == "" || o == getEnv("CLIENT_ORIGIN", "http://localhost:5173")
	},
}

type inMsg struct {
	T     string          `json:"t"`
	ReqID string          `json:"reqId,omitempty"`
	P     json.RawMessage `json:"p,omitempty"`
}

type outMsg struct {
	T     string `json:"t"`
	ReqID string `json:"reqId,omitempty"`
	P     any    `json:"p,omitempty"`
}

type errPayload struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Run  any    `json:"run,omitempty"`
}

type wsConn struct {
	ws       *websocket.Conn
	send     chan []byte
	runID    string
	playerID string
}

func (c *wsConn) out(m outMsg) {
	b, err := json.Marshal(m)
	if err != nil {
		log.Error().Err(err).Str("t", m.T).Msg("ws marshal")
		return
	}
	select {
	case c.send <- b:
	default:
		log.Warn().Str("run", c.runID).Msg("ws send buffer full; dropping frame")
	}
}

func (c *wsConn) outErr(reqID, code, msg string, run any) {
	c.out(outMsg{T: "ERROR", ReqID: reqID, P: errPayload{Code: code, Msg: msg, Run: run}})
}

// handleRunSocket checks ownership, upgrades, and pumps frames until the
// client goes away.
func (s *Server) handleRunSocket(w http.ResponseWriter, r *http.Request) {
	run, pid, ok := s.ownedRun(w, r)
	if !ok {
		return
	}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("run", run.ID).Msg("ws upgrade")
		return
	}
	c := &wsConn{ws: ws, send: make(chan []byte, wsSendBuffer), runID: run.ID, playerID: pid}
	log.Debug().Str("run", run.ID).Str("player", pid).Msg("ws connected")

	go c.writePump()
	c.out(outMsg{T: "STATE", P: viewOf(run)})
	s.readPump(context.WithoutCancel(r.Context()), c)
	close(c.send)
	log.Debug().Str("run", run.ID).Msg("ws closed")
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) readPump(ctx context.Context, c *wsConn) {
	_ = c.ws.SetReadDeadline(time.Now().Add(wsPongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("run", c.runID).Msg("ws read")
			}
			return
		}
		var in inMsg
		if err := json.Unmarshal(data, &in); err != nil {
			c.outErr("", "bad_json", "invalid json", nil)
			continue
		}

		switch in.T {
		case "PING":
			c.out(outMsg{T: "PONG", ReqID: in.ReqID})
		case "GET":
			run, err := s.store.Get(ctx, c.runID)
			if err != nil {
				c.outErr(in.ReqID, "run_not_found", "", nil)
				return
			}
			c.out(outMsg{T: "STATE", ReqID: in.ReqID, P: viewOf(run)})
		case "TICK":
			var p tickReq
			if err := json.Unmarshal(in.P, &p); err != nil || p.ElapsedMs < 0 {
				c.outErr(in.ReqID, "invalid_tick", "", nil)
				continue
			}
			if !s.wsApply(ctx, c, in.ReqID, game.Tick{Elapsed: time.Duration(p.ElapsedMs) * time.Millisecond}) {
				return
			}
		case "ACTION":
			var p actionReq
			if err := json.Unmarshal(in.P, &p); err != nil {
				c.outErr(in.ReqID, "bad_json", "invalid payload", nil)
				continue
			}
			a, err := s.actionFor(ctx, c.playerID, p)
			if err != nil {
				c.outErr(in.ReqID, "invalid_action", err.Error(), nil)
				continue
			}
			if !s.wsApply(ctx, c, in.ReqID, a) {
				return
			}
		default:
			c.outErr(in.ReqID, "unknown_type", "unknown message type: "+in.T, nil)
		}
	}
}

// wsApply applies a and answers with STATE or ERROR. It reports false when
// the run is gone and the connection should close.
func (s *Server) wsApply(ctx context.Context, c *wsConn, reqID string, a game.Action) bool {
	run, err := s.applyToRun(ctx, c.playerID, c.runID, a)
	var rej rejection
	switch {
	case err == nil:
		c.out(outMsg{T: "STATE", ReqID: reqID, P: viewOf(run)})
	case errors.As(err, &rej):
		c.outErr(reqID, errCode(rej.err), game.Message(rej.err), viewOf(run))
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrForbidden):
		c.outErr(reqID, "run_not_found", "", nil)
		return false
	default:
		log.Error().Err(err).Str("run", c.runID).Msg("ws apply")
		c.outErr(reqID, "server_error", "", nil)
	}
	return true
}

