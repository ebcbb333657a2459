// Command advisor runs the AI financial assistant as an HTTP service:
// chat over POST /chat or a websocket at /ws, backed by the tool
// catalog, the financial data store, and per-session conversation
// memory.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/mcsplatform/advisor-go-sdk/config"
	"github.com/mcsplatform/advisor-go-sdk/engine"
	"github.com/mcsplatform/advisor-go-sdk/finstore"
	"github.com/mcsplatform/advisor-go-sdk/memory"
	"github.com/mcsplatform/advisor-go-sdk/server"
	"github.com/mcsplatform/advisor-go-sdk/tools"
)

func main() {
	seed := flag.Bool("seed", false, "seed the financial database with demo data")
	flag.Parse()

	// .env is optional; system env vars win when present.
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.AnthropicKey == "" {
		log.Fatal("❌ ANTHROPIC_API_KEY environment variable is required")
	}

	// ── Stores ──────────────────────────────────────────────────────────
	store, err := finstore.Open(cfg.FinDBPath)
	if err != nil {
		log.Fatalf("❌ Failed to open financial store: %v", err)
	}
	defer store.Close()
	log.Println("✅ Financial data store ready")

	if *seed {
		if err := store.Seed(context.Background()); err != nil {
			log.Fatalf("❌ Failed to seed database: %v", err)
		}
		log.Println("✅ Demo data seeded")
	}

	mem, err := memory.Open(cfg.MemoryDBPath)
	if err != nil {
		log.Fatalf("❌ Failed to open memory store: %v", err)
	}
	defer mem.Close()
	log.Println("✅ Conversation memory ready")

	// ── Tools ───────────────────────────────────────────────────────────
	registry := engine.NewToolRegistry()
	registry.RegisterAll(tools.CreateTools(&tools.Deps{Store: store}))
	log.Printf("✅ Registered %d advisor tools", registry.Len())

	// ── Engine ──────────────────────────────────────────────────────────
	model, err := engine.NewAnthropicModel(cfg.AnthropicKey)
	if err != nil {
		log.Fatalf("❌ Failed to configure model: %v", err)
	}

	opts := []engine.Option{engine.WithMemory(mem)}
	if cfg.Model != "" {
		opts = append(opts, engine.WithModel(cfg.Model))
	}
	if cfg.MaxTokens > 0 {
		opts = append(opts, engine.WithMaxTokens(cfg.MaxTokens))
	}
	eng := engine.New(model, registry, store, opts...)

	// ── Server ──────────────────────────────────────────────────────────
	srv := server.New(eng, func(ctx context.Context, userID string) []string {
		return engine.Suggestions(ctx, store, userID)
	})

	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Println("🚀 Advisor Server Running")
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
