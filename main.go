package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"scenecast/api"
	"scenecast/config"
	"scenecast/jobs"
	"scenecast/kafka"
	"scenecast/render"
	"scenecast/storage"
	"scenecast/upstream"
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.ScratchDir, 0o755); err != nil {
		log.Fatalf("failed to create scratch dir %s: %v", cfg.ScratchDir, err)
	}

	store := initStore(ctx)
	blob := initStorage(ctx, cfg)

	pipeline := &render.Pipeline{
		ScratchDir:          cfg.ScratchDir,
		PublicBaseURL:       cfg.PublicBaseURL,
		MaxConcurrentScenes: config.MaxConcurrentScenes,
		MaxConcurrentFetch:  config.MaxConcurrentDownloads,
	}
	if blob != nil {
		pipeline.Uploader = blob
	}

	manager := jobs.NewManager(store, pipeline, true)

	sweeper := &render.Sweeper{
		Dir:      cfg.ScratchDir,
		MaxAge:   config.ScratchRetention,
		Interval: config.SweepInterval,
	}
	go sweeper.Run(ctx)

	if len(cfg.KafkaBrokers) > 0 {
		consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			GroupID: cfg.KafkaGroupID,
			Handler: kafka.NewRenderRequestHandler(manager),
		})
		if err != nil {
			log.Fatalf("failed to create Kafka consumer: %v", err)
		}
		if err := consumer.Start(ctx); err != nil {
			log.Fatalf("failed to start Kafka consumer: %v", err)
		}
		defer consumer.Close()
	} else {
		log.Println("KAFKA_BOOTSTRAP_SERVERS not set; queue consumer disabled")
	}

	var transcription *upstream.TranscriptionClient
	if cfg.TranscriptionURL != "" {
		transcription = upstream.NewTranscriptionClient(cfg.TranscriptionURL, cfg.TranscriptionKey, 30)
	}
	var images *upstream.ImageClient
	if cfg.ImageServiceURL != "" {
		images = upstream.NewImageClient(cfg.ImageServiceURL, cfg.ImageServiceKey, 60)
		images.PollInterval = config.PollInterval
		images.MaxPollAttempts = config.MaxPollAttempts
	}
	var tts *upstream.TTSClient
	if cfg.TTSServiceURL != "" {
		tts = upstream.NewTTSClient(cfg.TTSServiceURL, cfg.TTSServiceKey, 30)
	}

	r := api.NewRouter(manager, blob, transcription, images, tts, cfg.ScratchDir)
	addr := ":" + cfg.Port

	log.Printf("Starting API server on %s", addr)
	log.Println("API endpoints available:")
	log.Println("  GET    /health")
	log.Println("  POST   /render")
	log.Println("  GET    /jobs/:id")
	log.Println("  DELETE /jobs/:id")
	log.Println("  POST   /projects/:id/repair")
	log.Println("  POST   /scenes/segment")
	log.Println("  POST   /projects/:id/images")
	log.Println("  POST   /narrate")

	server := &http.Server{Addr: addr, Handler: r}
	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		server.Shutdown(context.Background())
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// initStore prefers Redis so jobs survive restarts, and falls back to the
// in-memory store when Redis is unreachable.
func initStore(ctx context.Context) jobs.Store {
	store, err := jobs.NewRedisStoreFromEnv(ctx)
	if err != nil {
		log.Printf("Warning: Redis unavailable, using in-memory job store: %v", err)
		return jobs.NewMemoryStore()
	}
	log.Println("✅ Connected to Redis job store")
	return store
}

// initStorage returns an S3 client if configured via env, else nil and
// rendered videos are served from the local scratch dir.
func initStorage(ctx context.Context, cfg config.Config) *storage.Blob {
	if cfg.S3Bucket == "" {
		log.Println("S3_BUCKET not set; uploads disabled, serving videos locally")
		return nil
	}

	blob, err := storage.New(ctx, storage.Config{
		Bucket:        cfg.S3Bucket,
		Region:        cfg.S3Region,
		PublicBaseURL: cfg.S3PublicURL,
		UsePathStyle:  cfg.S3UsePathStyle,
	})
	if err != nil {
		log.Printf("Warning: failed to init S3 client: %v (uploads disabled)", err)
		return nil
	}
	log.Printf("✅ S3 uploads enabled (bucket: %s)", cfg.S3Bucket)
	return blob
}
