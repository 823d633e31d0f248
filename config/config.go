package config

import (
	"os"
	"strings"
)

// Config holds the environment-driven service settings. Constants that do
// not vary per deployment live in constants.go.
type Config struct {
	Port       string
	ScratchDir string

	// PublicBaseURL serves rendered videos when no object storage is
	// configured.
	PublicBaseURL string

	// S3
	S3Bucket       string
	S3Region       string
	S3PublicURL    string
	S3UsePathStyle bool

	// Kafka; consumer is disabled when Brokers is empty.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Upstream services
	TranscriptionURL string
	TranscriptionKey string
	ImageServiceURL  string
	ImageServiceKey  string
	TTSServiceURL    string
	TTSServiceKey    string
}

// Load reads configuration from the environment with sensible defaults.
func Load() Config {
	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		ScratchDir:       getEnv("SCRATCH_DIR", "/tmp/scenecast"),
		PublicBaseURL:    strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		S3Bucket:         strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3Region:         strings.TrimSpace(os.Getenv("S3_REGION")),
		S3PublicURL:      strings.TrimRight(strings.TrimSpace(os.Getenv("S3_PUBLIC_URL")), "/"),
		S3UsePathStyle:   strings.EqualFold(strings.TrimSpace(os.Getenv("S3_USE_PATH_STYLE")), "true"),
		KafkaTopic:       getEnv("KAFKA_TOPIC_RENDER_REQUESTS", "render-requests"),
		KafkaGroupID:     getEnv("KAFKA_CONSUMER_GROUP_ID", "scenecast-render"),
		TranscriptionURL: strings.TrimSpace(os.Getenv("TRANSCRIPTION_SERVICE_URL")),
		TranscriptionKey: os.Getenv("TRANSCRIPTION_SERVICE_KEY"),
		ImageServiceURL:  strings.TrimSpace(os.Getenv("IMAGE_SERVICE_URL")),
		ImageServiceKey:  os.Getenv("IMAGE_SERVICE_KEY"),
		TTSServiceURL:    strings.TrimSpace(os.Getenv("TTS_SERVICE_URL")),
		TTSServiceKey:    os.Getenv("TTS_SERVICE_KEY"),
	}

	if brokers := strings.TrimSpace(os.Getenv("KAFKA_BOOTSTRAP_SERVERS")); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
