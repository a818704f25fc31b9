package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/degenlabs/flipgate/adapters/events"
	"github.com/degenlabs/flipgate/adapters/ledger"
	"github.com/degenlabs/flipgate/adapters/store"
	"github.com/degenlabs/flipgate/adapters/wallet"
	"github.com/degenlabs/flipgate/config"
	"github.com/degenlabs/flipgate/ports"
	"github.com/degenlabs/flipgate/service"
	transport "github.com/degenlabs/flipgate/transport/http"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		gateStore ports.Store
		eventPub  ports.EventPublisher
	)

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		gateStore = store.NewRedisStore(redisClient)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			log.Fatalf("Failed to create Redis publisher: %v", err)
		}
		eventPub = events.NewWatermillPublisher(publisher)
		log.Printf("Using Redis-backed stores")
	} else {
		memStore := store.NewMemoryStore()
		memStore.StartSweeper(ctx, time.Minute)
		gateStore = memStore
		log.Printf("Using in-memory stores (single instance only)")
	}

	rpcClient := rpc.New(cfg.RPCURL)

	var mint solana.PublicKey
	if cfg.Mint != "" {
		mint, err = solana.PublicKeyFromBase58(cfg.Mint)
		if err != nil {
			log.Fatalf("Invalid MINT: %v", err)
		}
	}
	solLedger := ledger.NewSolanaLedger(rpcClient, cfg.Treasury, mint)

	var balances ports.BalanceReader
	if cfg.Mint != "" {
		balances = solLedger
	}

	playService := service.NewPlayService(
		service.Deps{
			Store:    gateStore,
			Verifier: wallet.NewEd25519Verifier(),
			Drawer:   service.NewBernoulliDrawer(cfg.WinProbability),
			Payouts:  solLedger,
			Balances: balances,
			Events:   eventPub,
		},
		service.Params{
			ChallengeTTL: cfg.ChallengeTTL,
			Cooldown:     cfg.Cooldown,
			RateCeiling:  cfg.RateCeiling,
			RateWindow:   cfg.RateWindow,
			WinLamports:  cfg.WinLamports,
		},
	)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := transport.SetupRouter(playService, transport.ThrottleConfig{
		RPS:   cfg.ThrottleRPS,
		Burst: cfg.ThrottleBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Printf("Shutdown signal received, draining...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown: %v", err)
		}
	}()

	log.Printf("flipgate listening on :%s (treasury %s)", cfg.Port, cfg.Treasury.PublicKey())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed: %v", err)
	}
	log.Printf("Server shutdown complete")
}
