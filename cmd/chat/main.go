// chat is a terminal REPL for the memory-backed assistant. Each line is
// one conversation turn; the reply is printed together with the memory
// snippets that informed it.
//
// GROQ_API_KEY is required. REDIS_URL selects the durable store; without
// it the conversation lives in process memory only.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/recallware/recall-go/assistant"
	groqchat "github.com/recallware/recall-go/completion/openai"
	"github.com/recallware/recall-go/memory"
	"github.com/recallware/recall-go/memory/embedder/mock"
	openaiembed "github.com/recallware/recall-go/memory/embedder/openai"
	"github.com/recallware/recall-go/memory/store/memstore"
	redisstore "github.com/recallware/recall-go/memory/store/redis"
)

const snippetLen = 80

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	key := os.Getenv("GROQ_API_KEY")
	if key == "" {
		log.Fatal("❌ GROQ_API_KEY environment variable is required")
	}
	client, err := groqchat.New(groqchat.Config{
		APIKey:  key,
		BaseURL: os.Getenv("GROQ_BASE_URL"),
	})
	if err != nil {
		log.Fatalf("❌ Failed to create completion client: %v", err)
	}

	var store memory.Store
	if url := os.Getenv("REDIS_URL"); url != "" {
		store, err = redisstore.Open(ctx, url)
		if err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
	} else {
		fmt.Println("(no REDIS_URL set, memories will not survive this session)")
		store = memstore.New()
	}
	defer store.Close()

	var embedder memory.Embedder
	if ekey := os.Getenv("EMBEDDINGS_API_KEY"); ekey != "" {
		embedder, err = openaiembed.New(ctx, openaiembed.Config{
			APIKey:  ekey,
			BaseURL: os.Getenv("EMBEDDINGS_BASE_URL"),
			Model:   os.Getenv("EMBEDDINGS_MODEL"),
		})
		if err != nil {
			log.Fatalf("❌ Failed to create embedder: %v", err)
		}
	} else {
		embedder = mock.New()
	}

	a := assistant.New(store, embedder, memory.NewLinearRetriever(store, embedder), client)

	fmt.Println("Chat with the assistant (Ctrl-D to quit).")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		reply, retrieved, err := a.Handle(ctx, text, true)
		if err != nil {
			log.Printf("Turn failed: %v", err)
			continue
		}

		fmt.Printf("Assistant: %s\n", reply)
		if len(retrieved) > 0 {
			fmt.Println("  (recalled:)")
			for _, rec := range retrieved {
				fmt.Printf("  - [%s] %s\n", rec.Role, snippet(rec.Text))
			}
		}
		fmt.Println()
	}
	if err := scanner.Err(); err != nil {
		log.Printf("Input error: %v", err)
	}
}

func snippet(s string) string {
	if len(s) <= snippetLen {
		return s
	}
	return s[:snippetLen] + "..."
}
