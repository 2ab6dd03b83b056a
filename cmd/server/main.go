package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ledgerly/bill-extraction-service/api"
	"github.com/ledgerly/bill-extraction-service/internal/ai"
	"github.com/ledgerly/bill-extraction-service/internal/auth"
	"github.com/ledgerly/bill-extraction-service/internal/db"
	"github.com/ledgerly/bill-extraction-service/internal/logger"
	"github.com/ledgerly/bill-extraction-service/internal/models"
	"github.com/ledgerly/bill-extraction-service/internal/pipeline"
	"github.com/ledgerly/bill-extraction-service/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger.InitLogger()
	defer logger.Close()
	log := logger.GetLogger()

	auth.Init()

	if err := db.Init(); err != nil {
		log.Infow("running without persistence", "reason", err)
	} else {
		defer db.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.InitSchema(ctx); err != nil {
			log.Fatalw("schema initialization failed", "error", err)
		}
		cancel()
	}

	if err := storage.Init(); err != nil {
		log.Infow("running without object storage", "reason", err)
	}

	config, err := loadConfig("config.yaml")
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	var extractor *ai.Extractor
	if config.HasAICredentials() {
		provider, err := createProvider(config)
		if err != nil {
			log.Fatalw("failed to create AI provider", "error", err)
		}
		extractor = ai.NewExtractor(provider)
		log.Infow("AI extraction enabled", "provider", config.AI.DefaultProvider)
	} else {
		log.Info("no AI credentials configured, using pattern extraction only")
	}

	handler := api.NewHandler(config,
		pipeline.NewBillPipeline(extractor),
		pipeline.NewVoicePipeline(extractor),
	)
	router := handler.SetupRoutes()
	protected := auth.JWTMiddleware(router)

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	log.Infow("starting bill extraction service",
		"version", api.Version,
		"addr", addr,
		"ocr_command", config.OCR.Command,
		"database", db.Pool != nil,
		"storage", storage.Available(),
	)

	if err := http.ListenAndServe(addr, protected); err != nil {
		log.Fatalw("server failed", "error", err)
	}
}

func createProvider(config *models.Config) (ai.Provider, error) {
	switch config.AI.DefaultProvider {
	case "openai":
		return ai.NewOpenAIProvider(
			config.AI.OpenAI.APIKey,
			config.AI.OpenAI.BaseURL,
			config.AI.OpenAI.Model,
		), nil

	case "gemini":
		return ai.NewGeminiProvider(
			config.AI.Gemini.APIKey,
			config.AI.Gemini.Model,
		), nil

	case "ollama":
		return ai.NewOllamaProvider(
			config.AI.Ollama.BaseURL,
			config.AI.Ollama.Model,
		), nil

	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", config.AI.DefaultProvider)
	}
}

func loadConfig(path string) (*models.Config, error) {
	var config models.Config

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Environment overrides the file.
	if port := os.Getenv("PORT"); port != "" {
		fmt.Sscanf(port, "%d", &config.Port)
	}
	if host := os.Getenv("HOST"); host != "" {
		config.Host = host
	}
	if dir := os.Getenv("UPLOADS_DIR"); dir != "" {
		config.UploadsDir = dir
	}
	if cmd := os.Getenv("TESSERACT_CMD"); cmd != "" {
		config.OCR.Command = cmd
	}
	if lang := os.Getenv("TESSERACT_LANG"); lang != "" {
		config.OCR.Language = lang
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.AI.OpenAI.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.AI.OpenAI.BaseURL = baseURL
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		config.AI.OpenAI.Model = model
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.AI.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		config.AI.Gemini.Model = model
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.AI.Ollama.BaseURL = baseURL
	}
	if provider := os.Getenv("AI_PROVIDER"); provider != "" {
		config.AI.DefaultProvider = provider
	}

	// Defaults.
	if config.Port == 0 {
		config.Port = 8080
	}
	if config.UploadsDir == "" {
		config.UploadsDir = "uploads"
	}
	if config.AI.DefaultProvider == "" {
		config.AI.DefaultProvider = "gemini"
	}

	return &config, nil
}
