package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/recallware/recall-go/memory"
	"github.com/recallware/recall-go/server"
)

type stubHandler struct {
	reply string
	err   error
	last  string
}

func (h *stubHandler) Handle(ctx context.Context, userText string, persist bool) (string, []*memory.Record, error) {
	h.last = userText
	if h.err != nil {
		return "", nil, h.err
	}
	return h.reply, nil, nil
}

type stubTranscriber struct {
	text string
}

func (t *stubTranscriber) Transcribe(ctx context.Context, filename string, audio io.Reader) string {
	return t.text
}

func TestMessage(t *testing.T) {
	h := &stubHandler{reply: "Hello there!"}
	s := server.New(h, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/message", strings.NewReader(`{"text": "hi"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	var resp server.MessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid response body: %v", err)
	}
	if resp.Assistant != "Hello there!" {
		t.Errorf("Assistant = %q, want %q", resp.Assistant, "Hello there!")
	}
	if h.last != "hi" {
		t.Errorf("Handler received %q, want %q", h.last, "hi")
	}
}

func TestMessage_EmptyText(t *testing.T) {
	s := server.New(&stubHandler{reply: "unused"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/message", strings.NewReader(`{"text": ""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", rec.Code)
	}
}

func TestMessage_HandlerFailure(t *testing.T) {
	s := server.New(&stubHandler{err: errors.New("store down")}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/message", strings.NewReader(`{"text": "hi"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", rec.Code)
	}
}

func TestVoice(t *testing.T) {
	h := &stubHandler{reply: "Watering reminder set."}
	s := server.New(h, &stubTranscriber{text: "remind me to water the plants"})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "clip.wav")
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	fw.Write([]byte("fake audio bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/voice", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	var resp server.VoiceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid response body: %v", err)
	}
	if resp.InputText != "remind me to water the plants" {
		t.Errorf("InputText = %q, want transcription", resp.InputText)
	}
	if resp.Reply != "Watering reminder set." {
		t.Errorf("Reply = %q, want handler reply", resp.Reply)
	}
	if h.last != "remind me to water the plants" {
		t.Errorf("Handler received %q, want transcription", h.last)
	}
}

func TestVoice_NotConfigured(t *testing.T) {
	s := server.New(&stubHandler{reply: "unused"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/voice", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotImplemented {
		t.Errorf("Status = %d, want 501", rec.Code)
	}
}

func TestChatSocket(t *testing.T) {
	h := &stubHandler{reply: "Hi from the socket."}
	s := server.New(h, nil)

	srv := httptest.NewServer(s.Echo())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(server.MessageRequest{Text: "hello"}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	var resp server.MessageResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if resp.Assistant != "Hi from the socket." {
		t.Errorf("Assistant = %q, want stub reply", resp.Assistant)
	}
	if h.last != "hello" {
		t.Errorf("Handler received %q, want %q", h.last, "hello")
	}
}
