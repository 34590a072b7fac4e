package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/marquee/config"
	"github.com/teranos/marquee/display"
	"github.com/teranos/marquee/engine"
	"github.com/teranos/marquee/errors"
	"github.com/teranos/marquee/logger"
	"github.com/teranos/marquee/param"
	"github.com/teranos/marquee/request"
)

// Time allowed to write a message to the peer
const writeWait = 10 * time.Second

// sendBuffer bounds queued outbound messages per session
const sendBuffer = 16

// Message types
const (
	MsgHello    = "hello"
	MsgNavigate = "navigate"
	MsgPreset   = "preset"
	MsgResize   = "resize"
	MsgPause    = "pause"
	MsgSpectrum = "spectrum"
	MsgRender   = "render"
	MsgError    = "error"
)

// Inbound is a message from a display client.
type Inbound struct {
	Type string `json:"type"`
	// URL is the display path and query for navigate
	URL string `json:"url,omitempty"`
	// Name and Query select a preset for preset
	Name  string `json:"name,omitempty"`
	Query string `json:"query,omitempty"`
	// Bins is one frequency frame (0-255 per bin) for spectrum; empty stops
	// the sound engine
	Bins []int `json:"bins,omitempty"`
}

// Outbound is a message to a display client.
type Outbound struct {
	Type     string          `json:"type"`
	Session  string          `json:"session,omitempty"`
	HTML     string          `json:"html,omitempty"`
	Product  request.Product `json:"product,omitempty"`
	Effect   string          `json:"effect,omitempty"`
	Fallback bool            `json:"fallback,omitempty"`
	Paused   bool            `json:"paused,omitempty"`
	Config   param.Map       `json:"config,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Session is one live display. It owns its display.Products, so effect
// switches of different displays never interfere, and it handles its
// messages one at a time on the read goroutine.
type Session struct {
	id       string
	server   *Server
	conn     *websocket.Conn
	products *display.Products
	spectrum *engine.Spectrum
	limiter  *rate.Limiter
	settings config.SessionConfig
	log      *zap.SugaredLogger
	ctx      context.Context

	// current is the last rendered frame; nil until the first navigate
	current *frame

	send      chan Outbound
	done      chan struct{}
	closeOnce sync.Once
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// handleWebSocket upgrades the connection and runs a live session until the
// client goes away.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  2048,
		WriteBufferSize: 2048,
		CheckOrigin:     s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		s.log.Warnw("WebSocket upgrade failed", logger.FieldError, err)
		return
	}

	products, err := s.newProducts()
	if err != nil {
		s.log.Errorw("Failed to create session display", logger.FieldError, err)
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "display unavailable"))
		conn.Close()
		return
	}

	settings := s.config().Session
	id := uuid.New().String()
	sess := &Session{
		id:       id,
		server:   s,
		conn:     conn,
		products: products,
		spectrum: engine.NewSpectrum(engine.DefaultBins),
		limiter:  rate.NewLimiter(rate.Limit(settings.MaxMessagesPerSecond), settings.Burst),
		settings: settings,
		log:      s.log.With(logger.FieldSessionID, id),
		ctx:      logger.WithSessionID(s.ctx, id),
		send:     make(chan Outbound, sendBuffer),
		done:     make(chan struct{}),
	}

	s.register(sess)
	sess.enqueue(Outbound{Type: MsgHello, Session: id})

	go sess.writePump()
	sess.readPump()
}

// readPump handles reading messages from the WebSocket connection
func (s *Session) readPump() {
	defer func() {
		s.server.unregister(s)
		s.close()
	}()

	pongWait := time.Duration(s.settings.PongTimeoutSeconds) * time.Second
	s.conn.SetReadLimit(s.settings.MaxMessageBytes)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.handleReadError(err)
			return
		}

		if !s.limiter.Allow() {
			s.enqueue(errorMessage(errors.New("rate limit exceeded")))
			continue
		}

		var msg Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Debugw("Invalid session message", logger.FieldError, err, logger.FieldSize, len(data))
			s.enqueue(errorMessage(errors.Wrap(err, "invalid message")))
			continue
		}

		if reply := s.handle(msg); reply.Type != "" {
			s.enqueue(reply)
		}
	}
}

// handleReadError logs unexpected WebSocket read errors.
// Expected closure codes (going away, abnormal, no status) are silently ignored.
func (s *Session) handleReadError(err error) {
	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseNormalClosure,
		websocket.CloseAbnormalClosure,
		websocket.CloseNoStatusReceived,
	) {
		s.log.Warnw("WebSocket read error", logger.FieldError, err)
	}
}

// handle applies one message and returns the reply. A zero Outbound means
// there is nothing to send.
func (s *Session) handle(msg Inbound) Outbound {
	switch msg.Type {
	case MsgNavigate:
		parsed, cfg, err := request.ParseURL(msg.URL)
		if err != nil {
			return errorMessage(err)
		}
		return s.show(parsed, cfg)

	case MsgPreset:
		parsed, cfg, err := s.server.presets.Expand(msg.Name, msg.Query)
		if err != nil {
			return errorMessage(err)
		}
		return s.show(parsed, cfg)

	case MsgResize:
		if s.current == nil {
			return errorMessage(errors.New("nothing to resize"))
		}
		s.products.Resize()
		return s.rerender()

	case MsgPause:
		if s.current == nil {
			return errorMessage(errors.New("nothing to pause"))
		}
		if _, ok := s.products.TogglePause(); !ok {
			return errorMessage(errors.Newf("effect %s cannot pause", s.current.Result.Effect))
		}
		return s.rerender()

	case MsgSpectrum:
		s.feed(msg.Bins)
		if s.current == nil || s.current.Result.Product != request.ProductSound || s.current.Paused {
			return Outbound{}
		}
		return s.show(s.current.Parsed, s.current.Request.Clone())

	default:
		return errorMessage(errors.Newf("unknown message type %q", msg.Type))
	}
}

// feed stores a frequency frame from the display's audio capture.
func (s *Session) feed(bins []int) {
	if len(bins) == 0 {
		s.spectrum.Stop()
		return
	}
	data := make([]uint8, len(bins))
	for i, v := range bins {
		data[i] = uint8(min(max(v, 0), 255))
	}
	s.spectrum.Update(data)
}

func (s *Session) show(parsed request.Parsed, cfg param.Map) Outbound {
	f, err := show(s.ctx, s.products, parsed, cfg, display.Engines{Sound: s.spectrum})
	if err != nil {
		s.log.Infow("Session show failed",
			logger.FieldProduct, parsed.Product,
			logger.FieldError, err)
		return errorMessage(err)
	}
	s.current = &f
	return s.renderMessage()
}

// rerender refreshes the frame's annotations after an in-place change.
func (s *Session) rerender() Outbound {
	s.current.Paused = s.products.State().Paused
	s.current.Result.Config = s.products.State().Config
	if err := annotate(s.current.Root, s.current.Result, s.current.Paused); err != nil {
		return errorMessage(err)
	}
	return s.renderMessage()
}

func (s *Session) renderMessage() Outbound {
	html, err := s.current.Root.HTML()
	if err != nil {
		return errorMessage(err)
	}
	res := s.current.Result
	return Outbound{
		Type:     MsgRender,
		HTML:     html,
		Product:  res.Product,
		Effect:   res.Effect,
		Fallback: res.Fallback,
		Paused:   s.current.Paused,
		Config:   res.Config,
	}
}

func errorMessage(err error) Outbound {
	return Outbound{Type: MsgError, Error: err.Error()}
}

// enqueue queues a message for the write pump. Messages to a closed or
// backed-up session are dropped.
func (s *Session) enqueue(msg Outbound) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.send <- msg:
	default:
		s.log.Warnw("Session send buffer full, dropping message", "type", msg.Type)
	}
}

// writePump sends queued messages and keeps the connection alive with pings
func (s *Session) writePump() {
	ticker := time.NewTicker(time.Duration(s.settings.PingIntervalSeconds) * time.Second)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.ctx.Done():
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return

		case <-s.done:
			return

		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				s.log.Debugw("Session write error", logger.FieldError, err)
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close tears down the session's effects and connection once
func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.spectrum.Stop()
		s.products.Close()
		s.conn.Close()
	})
}
