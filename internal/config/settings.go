package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings is the runtime configuration. Values come from the defaults below, then an optional
// YAML file, then the environment (a .env file is loaded into the environment first).
type Settings struct {
	Env                string        `yaml:"env"`
	ListenAddr         string        `yaml:"listen_addr"`
	LogLevel           string        `yaml:"log_level"`
	AuthToken          string        `yaml:"auth_token"`
	DefaultMode        string        `yaml:"default_mode"`
	PaidProvider       string        `yaml:"paid_provider"`
	VectorBackend      string        `yaml:"vector_backend"`
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout"`

	OpenAI      OpenAISettings      `yaml:"openai"`
	Google      GoogleSettings      `yaml:"google"`
	HuggingFace HuggingFaceSettings `yaml:"huggingface"`
	Qdrant      QdrantSettings      `yaml:"qdrant"`
	Redis       RedisSettings       `yaml:"redis"`
}

type OpenAISettings struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	EmbeddingModel string `yaml:"embedding_model"`
	ChatModel      string `yaml:"chat_model"`
}

type GoogleSettings struct {
	APIKey         string `yaml:"api_key"`
	EmbeddingModel string `yaml:"embedding_model"`
	ChatModel      string `yaml:"chat_model"`
}

type HuggingFaceSettings struct {
	Token          string `yaml:"token"`
	InferenceURL   string `yaml:"inference_url"`
	EmbeddingModel string `yaml:"embedding_model"`
	ChatModel      string `yaml:"chat_model"`
}

type QdrantSettings struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
	UseTLS bool   `yaml:"use_tls"`
}

type RedisSettings struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
}

func Defaults() *Settings {
	return &Settings{
		Env:                "development",
		ListenAddr:         ServerListenAddr,
		LogLevel:           "debug",
		DefaultMode:        "public",
		PaidProvider:       PaidProviderOpenAI,
		VectorBackend:      VectorBackendMemory,
		SessionIdleTimeout: SessionIdleTimeout,
		OpenAI: OpenAISettings{
			EmbeddingModel: OpenAIEmbeddingModel,
			ChatModel:      OpenAIChatModel,
		},
		Google: GoogleSettings{
			EmbeddingModel: GoogleEmbeddingModel,
			ChatModel:      GeminiModelName,
		},
		HuggingFace: HuggingFaceSettings{
			InferenceURL:   HuggingFaceInferenceURL,
			EmbeddingModel: HuggingFaceEmbeddingModel,
			ChatModel:      HuggingFaceChatModel,
		},
		Qdrant: QdrantSettings{
			Port:   QdrantGrpcPort,
			UseTLS: QdrantUseTLS,
		},
		Redis: RedisSettings{
			Enabled: true,
			Addr:    RedisAddr,
		},
	}
}

// Load reads .env, the YAML file named by CONFIG_FILE (config.yaml by default) and the environment.
// A missing .env or config file is not an error.
func Load() (*Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	s := Defaults()
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = DefaultConfigFile
	}
	if err := s.MergeFile(path); err != nil {
		return nil, err
	}
	s.ApplyEnv(os.LookupEnv)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from environment variables. lookup is os.LookupEnv outside tests.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("APP_ENV", &s.Env)
	str("LISTEN_ADDR", &s.ListenAddr)
	str("LOG_LEVEL", &s.LogLevel)
	str("AUTH_TOKEN", &s.AuthToken)
	str("DEFAULT_MODE", &s.DefaultMode)
	str("PAID_PROVIDER", &s.PaidProvider)
	str("VECTOR_BACKEND", &s.VectorBackend)

	str("OPENAI_API_KEY", &s.OpenAI.APIKey)
	str("OPENAI_BASE_URL", &s.OpenAI.BaseURL)
	str("OPENAI_EMBEDDING_MODEL", &s.OpenAI.EmbeddingModel)
	str("OPENAI_CHAT_MODEL", &s.OpenAI.ChatModel)

	str("GOOGLE_API_KEY", &s.Google.APIKey)
	str("GOOGLE_EMBEDDING_MODEL", &s.Google.EmbeddingModel)
	str("GEMINI_MODEL", &s.Google.ChatModel)

	str("HUGGINGFACEHUB_API_TOKEN", &s.HuggingFace.Token)
	str("HUGGINGFACE_INFERENCE_URL", &s.HuggingFace.InferenceURL)
	str("HUGGINGFACE_EMBEDDING_MODEL", &s.HuggingFace.EmbeddingModel)
	str("HUGGINGFACE_CHAT_MODEL", &s.HuggingFace.ChatModel)

	str("QDRANT_HOST", &s.Qdrant.Host)
	str("QDRANT_API_KEY", &s.Qdrant.APIKey)
	if v, ok := lookup("QDRANT_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			s.Qdrant.Port = port
		}
	}

	str("REDIS_ADDR", &s.Redis.Addr)
	str("REDIS_PASSWORD", &s.Redis.Password)
	if v, ok := lookup("REDIS_ENABLED"); ok {
		if enabled, err := strconv.ParseBool(v); err == nil {
			s.Redis.Enabled = enabled
		}
	}

	if v, ok := lookup("SESSION_IDLE_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			s.SessionIdleTimeout = d
		}
	}
}

func (s *Settings) Validate() error {
	switch s.PaidProvider {
	case PaidProviderOpenAI, PaidProviderGemini:
	default:
		return fmt.Errorf("unknown paid provider %q (want %s or %s)", s.PaidProvider, PaidProviderOpenAI, PaidProviderGemini)
	}
	switch s.VectorBackend {
	case VectorBackendMemory:
	case VectorBackendQdrant:
		if s.Qdrant.Host == "" {
			return errors.New("vector backend qdrant needs QDRANT_HOST")
		}
	default:
		return fmt.Errorf("unknown vector backend %q (want %s or %s)", s.VectorBackend, VectorBackendMemory, VectorBackendQdrant)
	}
	if s.SessionIdleTimeout <= 0 {
		return errors.New("session idle timeout must be positive")
	}
	return nil
}

func (s *Settings) IsProd() bool {
	return strings.EqualFold(s.Env, "production") || strings.EqualFold(s.Env, "prod")
}

// NoAuthBypass reports whether requests skip bearer authentication. It is true when no token is configured.
func (s *Settings) NoAuthBypass() bool {
	return s.AuthToken == ""
}
