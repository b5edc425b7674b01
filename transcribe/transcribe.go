// Package transcribe turns uploaded audio into text for the assistant.
// Transcription failures never propagate: the result is always text, if
// necessary a descriptive placeholder that flows downstream as an
// ordinary (if nonsensical) utterance.
package transcribe

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// PlaceholderNoSpeech is returned when the backend produced no usable text.
const PlaceholderNoSpeech = "(Could not understand audio)"

// Transcriber converts audio into text. Implementations return a
// placeholder string on failure instead of an error.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) string
}

// Whisper transcribes through an OpenAI-compatible audio endpoint.
type Whisper struct {
	client *openai.Client
	model  string
}

// NewWhisper creates a Whisper transcriber. baseURL may point at any
// OpenAI-compatible provider (Groq hosts whisper-large-v3); empty keeps
// the OpenAI default.
func NewWhisper(apiKey, baseURL, model string) *Whisper {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &Whisper{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Transcribe converts the audio stream to text. filename carries the
// format hint (extension) the API needs.
func (w *Whisper) Transcribe(ctx context.Context, filename string, audio io.Reader) string {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: filename,
		Reader:   audio,
	})
	if err != nil {
		log.Printf("[TRANSCRIBE] Transcription failed: %v", err)
		return fmt.Sprintf("Error during transcription: %v", err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return PlaceholderNoSpeech
	}
	return text
}
