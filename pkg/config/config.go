package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const defaultUpstreamBaseURL = "https://backend.vgvishesh.com"

type Config struct {
	UpstreamBaseURL string
	APIKey          string
	KnowledgeBaseID string
	Port            int
	MaxUploadBytes  int
	LLM             LLMConfig
	Logging         LoggingConfig
}

type LLMConfig struct {
	Provider     string
	Model        string
	GeminiAPIKey string
	OpenAIAPIKey string
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

// MissingError reports required configuration that was not supplied.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Names, ", "))
}

func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	setDefaults(v)

	config := &Config{
		UpstreamBaseURL: v.GetString("UPSTREAM_BASE_URL"),
		APIKey:          v.GetString("API_KEY"),
		KnowledgeBaseID: v.GetString("KNOWLEDGE_BASE_ID"),
		Port:            v.GetInt("PORT"),
		MaxUploadBytes:  v.GetInt("MAX_UPLOAD_BYTES"),
		LLM: LLMConfig{
			Provider:     v.GetString("LLM_PROVIDER"),
			Model:        v.GetString("LLM_MODEL"),
			GeminiAPIKey: v.GetString("GEMINI_API_KEY"),
			OpenAIAPIKey: v.GetString("OPENAI_API_KEY"),
		},
		Logging: LoggingConfig{
			Level:      v.GetString("LOG_LEVEL"),
			Format:     v.GetString("LOG_FORMAT"),
			OutputPath: v.GetString("LOG_OUTPUT"),
		},
	}

	if config.APIKey == "" {
		return nil, &MissingError{Names: []string{"API_KEY"}}
	}

	return config, nil
}

// ChatMissing returns the configuration names still required before the chat
// path can run. KB management endpoints stay usable while these are absent.
func (c *Config) ChatMissing() []string {
	var missing []string
	if c.KnowledgeBaseID == "" {
		missing = append(missing, "KNOWLEDGE_BASE_ID")
	}
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	default:
		if c.LLM.GeminiAPIKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	}
	return missing
}

// LLMAPIKey returns the key matching the configured provider.
func (c *Config) LLMAPIKey() string {
	if c.LLM.Provider == "openai" {
		return c.LLM.OpenAIAPIKey
	}
	return c.LLM.GeminiAPIKey
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("UPSTREAM_BASE_URL", defaultUpstreamBaseURL)
	v.SetDefault("PORT", 3000)
	v.SetDefault("MAX_UPLOAD_BYTES", 25*1024*1024)

	v.SetDefault("LLM_PROVIDER", "gemini")
	v.SetDefault("LLM_MODEL", "gemini-2.5-flash")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_OUTPUT", "stdout")
}
