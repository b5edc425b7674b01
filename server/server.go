// Package server exposes the assistant over HTTP: JSON endpoints for
// text and voice turns, plus a websocket channel for interactive chat.
package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/recallware/recall-go/memory"
	"github.com/recallware/recall-go/transcribe"
)

// Handler runs one conversation turn. The assistant package provides the
// production implementation; tests stub it.
type Handler interface {
	Handle(ctx context.Context, userText string, persist bool) (string, []*memory.Record, error)
}

// Server wires the assistant into an Echo instance.
type Server struct {
	echo        *echo.Echo
	handler     Handler
	transcriber transcribe.Transcriber
	upgrader    websocket.Upgrader
}

// MessageRequest is the body of POST /api/message.
type MessageRequest struct {
	Text string `json:"text"`
}

// MessageResponse is the reply for POST /api/message.
type MessageResponse struct {
	Assistant string `json:"assistant"`
}

// VoiceResponse is the reply for POST /api/voice. InputText echoes the
// transcription so clients can display what was understood.
type VoiceResponse struct {
	InputText string `json:"input_text"`
	Reply     string `json:"reply"`
}

// New creates a server. transcriber may be nil, which disables the voice
// endpoint with 501 responses.
func New(handler Handler, transcriber transcribe.Transcriber) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:        e,
		handler:     handler,
		transcriber: transcriber,
		upgrader: websocket.Upgrader{
			// Browser clients connect from arbitrary origins, same as
			// the permissive CORS policy above.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	e.POST("/api/message", s.handleMessage)
	e.POST("/api/voice", s.handleVoice)
	e.GET("/api/chat/ws", s.handleChatSocket)
	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return s
}

// Echo exposes the underlying instance, mainly for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start serves on addr until Shutdown or a listener error.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleMessage(c echo.Context) error {
	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	reply, _, err := s.handler.Handle(c.Request().Context(), req.Text, true)
	if err != nil {
		log.Printf("[SERVER] Turn failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "assistant unavailable")
	}
	return c.JSON(http.StatusOK, MessageResponse{Assistant: reply})
}

func (s *Server) handleVoice(c echo.Context) error {
	if s.transcriber == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "voice input is not configured")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "audio file is required")
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read audio file")
	}
	defer src.Close()

	ctx := c.Request().Context()
	text := s.transcriber.Transcribe(ctx, file.Filename, src)

	reply, _, err := s.handler.Handle(ctx, text, true)
	if err != nil {
		log.Printf("[SERVER] Voice turn failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "assistant unavailable")
	}
	return c.JSON(http.StatusOK, VoiceResponse{InputText: text, Reply: reply})
}

// handleChatSocket runs a message-per-frame chat loop. Each inbound text
// frame is one user turn; the reply goes back on the same connection.
func (s *Server) handleChatSocket(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx := c.Request().Context()
	for {
		var req MessageRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[SERVER] Websocket read failed: %v", err)
			}
			return nil
		}
		if req.Text == "" {
			continue
		}

		reply, _, err := s.handler.Handle(ctx, req.Text, true)
		if err != nil {
			log.Printf("[SERVER] Websocket turn failed: %v", err)
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "assistant unavailable"),
				time.Now().Add(time.Second))
			return nil
		}
		if err := conn.WriteJSON(MessageResponse{Assistant: reply}); err != nil {
			log.Printf("[SERVER] Websocket write failed: %v", err)
			return nil
		}
	}
}
