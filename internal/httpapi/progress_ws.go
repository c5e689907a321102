package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/eventlog"
	"github.com/gorilla/websocket"
)

const (
	wsRequestTimeout = 30 * time.Second // time to send the process request
	wsWriteTimeout   = 10 * time.Second
)

// wsMessage is a server-to-client frame on /ws/process.
type wsMessage struct {
	Type   string           `json:"type"` // event, result or error
	Event  *eventlog.Event  `json:"event,omitempty"`
	Result *processResponse `json:"result,omitempty"`
	Error  *errorBody       `json:"error,omitempty"`
}

func (r *Router) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(req *http.Request) bool {
			origin := req.Header.Get("Origin")
			if origin == "" || len(r.cfg.CORSOrigins) == 0 {
				return true
			}
			for _, o := range r.cfg.CORSOrigins {
				if o == "*" || o == origin {
					return true
				}
			}
			return false
		},
	}
}

// handleProcessWS reads one process request, streams stage events while the
// pipeline runs, then sends the result or the error and closes.
func (r *Router) handleProcessWS(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader().Upgrade(w, req, nil)
	if err != nil {
		r.logger.WithError(err).Warn("ws: upgrade failed")
		return
	}
	defer conn.Close()

	requestID := eventlog.RequestID(req.Context())
	log := r.logger.WithField("request_id", requestID)

	_ = conn.SetReadDeadline(time.Now().Add(wsRequestTimeout))
	var body processRequest
	if err := conn.ReadJSON(&body); err != nil {
		log.WithError(err).Warn("ws: failed to read process request")
		r.writeWS(conn, wsMessage{Type: "error", Error: &errorBody{Error: "invalid process request", RequestID: requestID}})
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(req.Context())
	defer cancel()

	// The client only talks once; any further read ends the run.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	ctx = eventlog.WithListener(ctx, func(ev eventlog.Event) {
		r.writeWS(conn, wsMessage{Type: "event", Event: &ev})
	})

	res, err := r.pipeline.Process(ctx, body.input(), body.options())
	if err != nil {
		status, eb := newErrorBody(ctx, err)
		if status != http.StatusBadRequest && ctx.Err() == nil {
			r.reportFailure(req, err, eb, "ws: pipeline failed")
		}
		r.writeWS(conn, wsMessage{Type: "error", Error: &eb})
		r.closeWS(conn)
		return
	}

	resp := newProcessResponse(ctx, res, body.TopN)
	r.writeWS(conn, wsMessage{Type: "result", Result: &resp})
	r.closeWS(conn)
	log.Info("ws: process completed")
}

func (r *Router) writeWS(conn *websocket.Conn, msg wsMessage) {
	b, err := json.Marshal(msg)
	if err != nil {
		r.logger.WithError(err).Warn("ws: failed to marshal message")
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		r.logger.WithError(err).Debug("ws: write failed")
	}
}

func (r *Router) closeWS(conn *websocket.Conn) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(time.Second))
}
