// recalld serves the memory-backed assistant over HTTP.
//
// Configuration is environment-driven (a .env file is honored):
//
//	GROQ_API_KEY          API key for completions and transcription (required for the groq provider)
//	GROQ_BASE_URL         override the Groq endpoint
//	COMPLETION_PROVIDER   "groq" (default) or "anthropic"
//	COMPLETION_MODEL      override the provider's default model
//	ANTHROPIC_API_KEY     API key for the anthropic provider
//	REDIS_URL             Redis connection URL (default redis://localhost:6379/0)
//	MEMORY_STORE          "redis" (default) or "memory" for the in-process store
//	MEMORY_RET_K          memories retrieved per turn (default 5)
//	MEMORY_INDEX          "chromem" enables the indexed retriever with startup backfill
//	EMBEDDER              "mock" (default), "openai" or "onnx"
//	EMBEDDINGS_API_KEY    API key for the openai embedder
//	EMBEDDINGS_BASE_URL   endpoint for the openai embedder
//	EMBEDDINGS_MODEL      model for the openai embedder
//	ONNX_MODEL_PATH       model.onnx path for the onnx embedder
//	ONNX_TOKENIZER_PATH   tokenizer.json path for the onnx embedder
//	EMBED_CACHE_SIZE      embedding cache entries (default 4096, 0 disables)
//	PORT                  listen port (default 8000)
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/recallware/recall-go/assistant"
	"github.com/recallware/recall-go/completion"
	anthropicchat "github.com/recallware/recall-go/completion/anthropic"
	groqchat "github.com/recallware/recall-go/completion/openai"
	"github.com/recallware/recall-go/memory"
	"github.com/recallware/recall-go/memory/embedder/mock"
	openaiembed "github.com/recallware/recall-go/memory/embedder/openai"
	chromemindex "github.com/recallware/recall-go/memory/index/chromem"
	"github.com/recallware/recall-go/memory/store/memstore"
	redisstore "github.com/recallware/recall-go/memory/store/redis"
	"github.com/recallware/recall-go/server"
	"github.com/recallware/recall-go/transcribe"
)

func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := openStore(ctx)
	defer store.Close()

	embedder := openEmbedder(ctx)
	if size := envInt("EMBED_CACHE_SIZE", 4096); size > 0 {
		cached, err := memory.NewCachedEmbedder(embedder, int64(size))
		if err != nil {
			log.Fatalf("❌ Failed to create embedding cache: %v", err)
		}
		defer cached.Close()
		embedder = cached
		log.Printf("✅ Embedding cache enabled (%d entries)", size)
	}

	retriever := openRetriever(ctx, store, embedder)
	client := openCompletionClient()

	a := assistant.New(store, embedder, retriever, client,
		assistant.WithRetrieveLimit(envInt("MEMORY_RET_K", assistant.DefaultRetrieveLimit)))

	var transcriber transcribe.Transcriber
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		transcriber = transcribe.NewWhisper(key, envOr("GROQ_BASE_URL", groqchat.GroqBaseURL), "whisper-large-v3")
		log.Println("✅ Voice transcription enabled")
	}

	srv := server.New(a, transcriber)
	addr := ":" + envOr("PORT", "8000")

	go func() {
		log.Printf("🚀 Listening on %s", addr)
		if err := srv.Start(addr); err != nil {
			log.Printf("[SERVER] Stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[SERVER] Shutdown failed: %v", err)
	}
}

func openStore(ctx context.Context) memory.Store {
	if envOr("MEMORY_STORE", "redis") == "memory" {
		log.Println("✅ Using in-process memory store")
		return memstore.New()
	}
	url := envOr("REDIS_URL", "redis://localhost:6379/0")
	store, err := redisstore.Open(ctx, url)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis at %s: %v", url, err)
	}
	log.Printf("✅ Redis store connected (%s)", url)
	return store
}

func openEmbedder(ctx context.Context) memory.Embedder {
	switch envOr("EMBEDDER", "mock") {
	case "openai":
		embedder, err := openaiembed.New(ctx, openaiembed.Config{
			APIKey:  os.Getenv("EMBEDDINGS_API_KEY"),
			BaseURL: os.Getenv("EMBEDDINGS_BASE_URL"),
			Model:   os.Getenv("EMBEDDINGS_MODEL"),
		})
		if err != nil {
			log.Fatalf("❌ Failed to create embedder: %v", err)
		}
		log.Println("✅ OpenAI-compatible embedder ready")
		return embedder
	case "onnx":
		embedder, err := newONNXEmbedder()
		if err != nil {
			log.Fatalf("❌ Failed to load ONNX embedder: %v", err)
		}
		log.Println("✅ ONNX embedder ready")
		return embedder
	default:
		log.Println("⚠️ Using mock embedder; retrieval quality will be poor")
		return mock.New()
	}
}

func openRetriever(ctx context.Context, store memory.Store, embedder memory.Embedder) memory.Retriever {
	if envOr("MEMORY_INDEX", "") != "chromem" {
		return memory.NewLinearRetriever(store, embedder)
	}
	index, err := chromemindex.New(embedder)
	if err != nil {
		log.Fatalf("❌ Failed to create vector index: %v", err)
	}
	if err := index.Backfill(ctx, store); err != nil {
		log.Fatalf("❌ Failed to backfill vector index: %v", err)
	}
	log.Println("✅ Vector index backfilled")
	return index
}

func openCompletionClient() completion.Client {
	cfg := completion.Config{Model: os.Getenv("COMPLETION_MODEL")}
	switch envOr("COMPLETION_PROVIDER", "groq") {
	case "anthropic":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			log.Fatal("❌ ANTHROPIC_API_KEY environment variable is required")
		}
		client, err := anthropicchat.New(key, cfg, "")
		if err != nil {
			log.Fatalf("❌ Failed to create completion client: %v", err)
		}
		log.Println("✅ Anthropic completion client ready")
		return client
	default:
		key := os.Getenv("GROQ_API_KEY")
		if key == "" {
			log.Fatal("❌ GROQ_API_KEY environment variable is required")
		}
		client, err := groqchat.New(groqchat.Config{
			APIKey:  key,
			BaseURL: os.Getenv("GROQ_BASE_URL"),
			Config:  cfg,
		})
		if err != nil {
			log.Fatalf("❌ Failed to create completion client: %v", err)
		}
		log.Println("✅ Groq completion client ready")
		return client
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("❌ %s must be an integer, got %q", key, v)
	}
	return n
}
