package core

import (
	"crypto/tls"
	"net/http"
	"strings"
	"time"
)

// Supported engine backends.
const (
	BackendLocal  = "local"  // stable-diffusion.cpp through sdruntime
	BackendOpenAI = "openai" // OpenAI image API
	BackendAzure  = "azure"  // Azure OpenAI image deployment
)

// Startup defaults.
const (
	DefaultModel        = "bes-dev/stable-diffusion-v1-4-openvino"
	DefaultTokenizer    = "openai/clip-vit-large-patch14"
	DefaultScheduler    = "LMS"
	DefaultBetaStart    = 0.00085
	DefaultBetaEnd      = 0.012
	DefaultBetaSchedule = "scaled_linear"
	DefaultModelsDir    = "models"
	DefaultLogFile      = "sdprompt.log"

	DefaultImageModel      = "dall-e-2"
	DefaultImageSize       = "512x512"
	DefaultAzureAPIVersion = "2024-02-15-preview"
)

// Config holds all configuration values
type Config struct {
	// Engine selection (--model, --model-revision, --tokenizer)
	Model         string
	ModelRevision string
	Tokenizer     string
	Backend       string
	ModelsDir     string

	// Scheduler (--scheduler, --beta-*)
	Scheduler    string
	BetaStart    float64
	BetaEnd      float64
	BetaSchedule string

	// Ambient
	HistoryDB string // empty disables run history
	LogFile   string
	DevMode   bool

	// Remote image API (openai / azure backends)
	OpenAIAPIKey          string
	ImageLLMURL           string
	OpenAIImageModel      string
	OpenAIImageSize       string
	AzureOpenAIEndpoint   string
	AzureOpenAIKey        string
	AzureOpenAIDeployment string
	AzureOpenAIAPIVersion string
	AITimeout             time.Duration
	AllowSelfSignedCerts  bool

	// Startup checks
	MinFreeSpace int64
}

// LoadConfig builds a Config from environment variables, falling back to
// built-in defaults. Command-line flags are applied on top by the caller.
func LoadConfig() *Config {
	return &Config{
		Model:         GetEnvOrDefault("SDPROMPT_MODEL", DefaultModel),
		ModelRevision: GetEnvOrDefault("SDPROMPT_MODEL_REVISION", ""),
		Tokenizer:     GetEnvOrDefault("SDPROMPT_TOKENIZER", DefaultTokenizer),
		Backend:       strings.ToLower(GetEnvOrDefault("SDPROMPT_BACKEND", BackendLocal)),
		ModelsDir:     GetEnvOrDefault("SDPROMPT_MODELS_DIR", DefaultModelsDir),

		Scheduler:    GetEnvOrDefault("SDPROMPT_SCHEDULER", DefaultScheduler),
		BetaStart:    ParseFloat64Env("SDPROMPT_BETA_START", DefaultBetaStart),
		BetaEnd:      ParseFloat64Env("SDPROMPT_BETA_END", DefaultBetaEnd),
		BetaSchedule: GetEnvOrDefault("SDPROMPT_BETA_SCHEDULE", DefaultBetaSchedule),

		HistoryDB: LookupEnvAllowEmpty("SDPROMPT_HISTORY_DB", GetDataFilePath("history.db")),
		LogFile:   GetEnvOrDefault("SDPROMPT_LOG_FILE", DefaultLogFile),
		DevMode:   ParseBoolEnv("DEV_MODE", false),

		OpenAIAPIKey:          GetEnvOrDefault("OPENAI_API_KEY", ""),
		ImageLLMURL:           GetEnvOrDefault("IMAGE_LLM_URL", "https://api.openai.com/v1"),
		OpenAIImageModel:      GetEnvOrDefault("OPENAI_IMAGE_MODEL", DefaultImageModel),
		OpenAIImageSize:       GetEnvOrDefault("OPENAI_IMAGE_SIZE", DefaultImageSize),
		AzureOpenAIEndpoint:   GetEnvOrDefault("AZURE_OPENAI_ENDPOINT", ""),
		AzureOpenAIKey:        GetEnvOrDefault("AZURE_OPENAI_KEY", ""),
		AzureOpenAIDeployment: GetEnvOrDefault("AZURE_OPENAI_DEPLOYMENT", ""),
		AzureOpenAIAPIVersion: GetEnvOrDefault("AZURE_OPENAI_API_VERSION", DefaultAzureAPIVersion),
		AITimeout:             time.Duration(ParseIntEnv("AI_TIMEOUT_SECONDS", 300)) * time.Second,
		AllowSelfSignedCerts:  ParseBoolEnv("ALLOW_SELF_SIGNED_CERTS", false),

		MinFreeSpace: parseSizeEnv("SDPROMPT_MIN_FREE_SPACE", DefaultMinFreeSpace),
	}
}

// parseSizeEnv reads a human-readable size ("200MB") from key. Unparseable
// values fall back to defaultValue.
func parseSizeEnv(key string, defaultValue int64) int64 {
	value := GetEnvOrDefault(key, "")
	if value == "" {
		return defaultValue
	}
	n, err := ParseBytes(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// Validate checks backend selection and the credentials it needs.
// Scheduler values are checked by the engine configurator, not here.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendLocal:
		if strings.TrimSpace(c.Model) == "" {
			return ErrMissingConfig("SDPROMPT_MODEL")
		}
	case BackendOpenAI:
		if c.OpenAIAPIKey == "" {
			return ErrMissingAuth(BackendOpenAI)
		}
	case BackendAzure:
		if c.AzureOpenAIKey == "" {
			return ErrMissingAuth(BackendAzure)
		}
		if c.AzureOpenAIEndpoint == "" {
			return ErrMissingConfig("AZURE_OPENAI_ENDPOINT")
		}
		if c.AzureOpenAIDeployment == "" {
			return ErrMissingConfig("AZURE_OPENAI_DEPLOYMENT")
		}
	default:
		return ErrInvalidBackend(c.Backend)
	}
	return nil
}

// HistoryEnabled reports whether runs should be recorded.
func (c *Config) HistoryEnabled() bool {
	return strings.TrimSpace(c.HistoryDB) != ""
}

// GetHTTPClient returns the client used for remote image APIs. Self-signed
// certificates are accepted only when ALLOW_SELF_SIGNED_CERTS is set, for
// proxies in front of the API.
func GetHTTPClient(cfg *Config, timeout time.Duration) *http.Client {
	client := &http.Client{Timeout: timeout}

	if cfg != nil && cfg.AllowSelfSignedCerts {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return client
}
