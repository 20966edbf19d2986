package main

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/miretskiy/mlqsim/internal/session"
	"github.com/miretskiy/mlqsim/internal/workload"
	"github.com/miretskiy/mlqsim/simulator"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for development
		return true
	},
}

// ClientMessage is a command from the browser
type ClientMessage struct {
	Type        string          `json:"type"` // load, step, undo, redo, play, pause, reset
	Processes   []workload.Spec `json:"processes,omitempty"`
	TimeQuantum int             `json:"timeQuantum,omitempty"`
}

// ServerMessage is pushed to the browser
type ServerMessage struct {
	Type     string                   `json:"type"` // status, state, metrics, error
	Status   *session.Status          `json:"status,omitempty"`
	State    *simulator.State         `json:"state,omitempty"`
	Metrics  []simulator.QueueMetrics `json:"metrics,omitempty"`
	Summary  *simulator.Summary       `json:"summary,omitempty"`
	Error    string                   `json:"error,omitempty"`
	Problems []workload.Problem       `json:"problems,omitempty"`
}

// safeConn wraps a WebSocket connection with a mutex to prevent concurrent writes
type safeConn struct {
	*websocket.Conn
	writeMu sync.Mutex
}

func (sc *safeConn) WriteJSON(v interface{}) error {
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()
	return sc.Conn.WriteJSON(v)
}

// wsClient is one browser connection and the session it drives.
type wsClient struct {
	srv  *server
	conn *safeConn
	sess *session.Session
}

func (c *wsClient) sendStatus() error {
	st := c.sess.Status()
	return c.conn.WriteJSON(ServerMessage{Type: "status", Status: &st})
}

// sendState pushes state followed by metrics, the order the UI renders them.
func (c *wsClient) sendState(st simulator.State) error {
	if err := c.conn.WriteJSON(ServerMessage{Type: "state", State: &st}); err != nil {
		return err
	}
	sum := simulator.Summarize(st)
	return c.conn.WriteJSON(ServerMessage{Type: "metrics", Metrics: c.sess.Metrics(), Summary: &sum})
}

func (c *wsClient) sendError(msg string, problems []workload.Problem) error {
	return c.conn.WriteJSON(ServerMessage{Type: "error", Error: msg, Problems: problems})
}

// uiUpdateLoop paces autoplay: every tick advances the session one step while
// it is playing and pushes the result to the client.
func (c *wsClient) uiUpdateLoop(ctx context.Context) {
	err := c.sess.Run(ctx, c.srv.cfg.TickInterval, func(st simulator.State) {
		c.srv.metrics.steps.Inc()
		c.srv.observe(c.sess)
		if err := c.sendState(st); err != nil {
			c.srv.logger.Warn("send state failed", "session", c.sess.ID(), "error", err)
			return
		}
		if st.IsCompleted {
			_ = c.sendStatus()
		}
	})
	c.srv.logger.Debug("UI update loop stopping", "session", c.sess.ID(), "reason", err)
}

func (s *server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	engine, err := s.newEngine(0)
	if err != nil {
		s.logger.Error("create engine", "error", err)
		return
	}
	c := &wsClient{
		srv:  s,
		conn: &safeConn{Conn: conn},
		sess: s.newSession(engine, nil),
	}
	s.metrics.activeSessions.Inc()
	s.logger.Info("client connected", "session", c.sess.ID(), "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(s.baseCtx)
	// Unblock ReadJSON when the server shuts down.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		c.uiUpdateLoop(ctx)
	}()
	// The loop must be gone before forget, or a late tick re-creates the
	// session's series.
	defer func() {
		cancel()
		<-loopDone
		s.metrics.forget(c.sess.ID())
		s.metrics.activeSessions.Dec()
	}()

	if err := c.sendStatus(); err != nil {
		return
	}

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Warn("read message", "session", c.sess.ID(), "error", err)
			}
			break
		}
		s.logger.Debug("received command", "session", c.sess.ID(), "type", msg.Type)
		if err := c.handle(msg); err != nil {
			s.logger.Warn("write message", "session", c.sess.ID(), "error", err)
			break
		}
	}
	s.logger.Info("client disconnected", "session", c.sess.ID())
}

// handle applies one client command and replies with the resulting status and,
// when the state changed, the new state and metrics.
func (c *wsClient) handle(msg ClientMessage) error {
	switch msg.Type {
	case "load":
		wl := workload.Workload{TimeQuantum: msg.TimeQuantum, Processes: msg.Processes}
		if err := wl.Validate(); err != nil {
			var problems []workload.Problem
			var verr *workload.ValidationError
			if errors.As(err, &verr) {
				problems = verr.Problems
			}
			return c.sendError(err.Error(), problems)
		}
		engine, err := c.srv.newEngine(wl.TimeQuantum)
		if err != nil {
			return c.sendError(err.Error(), nil)
		}
		c.sess.Load(engine, wl.Processes())

	case "step":
		if _, ok := c.sess.StepForward(); ok {
			c.srv.metrics.steps.Inc()
		}

	case "undo":
		c.sess.Undo()

	case "redo":
		c.sess.Redo()

	case "play":
		c.sess.Play()
		return c.sendStatus()

	case "pause":
		c.sess.Pause()
		return c.sendStatus()

	case "reset":
		c.sess.Restart()

	default:
		return c.sendError("unknown message type: "+msg.Type, nil)
	}

	c.srv.observe(c.sess)
	if err := c.sendStatus(); err != nil {
		return err
	}
	return c.sendState(c.sess.State())
}
