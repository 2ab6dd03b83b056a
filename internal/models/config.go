package models

// Config represents the service configuration, loaded once at startup and
// read-only thereafter.
type Config struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	// UploadsDir is where bill uploads and derived artifacts live.
	UploadsDir string `yaml:"uploads_dir"`

	OCR OCRConfig `yaml:"ocr"`
	AI  AIConfig  `yaml:"ai"`
}

// OCRConfig configures the external OCR engine.
type OCRConfig struct {
	// Command is the tesseract binary; an absolute path or a name
	// resolved via PATH.
	Command  string `yaml:"command"`
	Language string `yaml:"language"` // default "eng"
}

// AIConfig selects and configures the AI extraction providers.
type AIConfig struct {
	OpenAI OpenAIConfig `yaml:"openai"`
	Gemini GeminiConfig `yaml:"gemini"`
	Ollama OllamaConfig `yaml:"ollama"`

	DefaultProvider string `yaml:"default_provider"` // "gemini", "openai", "ollama"
}

// OpenAIConfig for OpenAI-compatible endpoints.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
}

// GeminiConfig for Google Gemini.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"` // default "gemini-2.0-flash"
}

// OllamaConfig for a local Ollama server (OpenAI-compatible API).
type OllamaConfig struct {
	BaseURL string `yaml:"base_url"` // default "http://localhost:11434"
	Model   string `yaml:"model"`
}

// HasAICredentials reports whether any AI provider is usable. When false the
// pipeline skips AI stages entirely and runs pattern extraction only.
func (c *Config) HasAICredentials() bool {
	switch c.AI.DefaultProvider {
	case "gemini":
		return c.AI.Gemini.APIKey != ""
	case "openai":
		return c.AI.OpenAI.APIKey != ""
	case "ollama":
		return c.AI.Ollama.BaseURL != ""
	}
	return false
}
