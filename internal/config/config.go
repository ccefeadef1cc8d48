// Package config provides configuration management for the docx translator application.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"docx-translator/internal/logger"
	"docx-translator/internal/types"
)

const (
	// DefaultConfigFileName is the default configuration file name
	DefaultConfigFileName = "docx-translator-config.json"
	// EnvOpenAIAPIKey is the environment variable name for OpenAI API key
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	// EnvOpenAIBaseURL is the environment variable name for OpenAI base URL
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	// DefaultBaseURL is the default OpenAI API base URL
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is the default OpenAI model to use
	DefaultModel = "gpt-4o"
	// DefaultTargetLanguage is the default translation target language
	DefaultTargetLanguage = "Simplified Chinese"
	// DefaultMaxChunkChars is the default maximum chunk size sent to the
	// translation backend in a single request
	DefaultMaxChunkChars = 1800
	// DefaultConcurrency is the default number of concurrent translation units
	DefaultConcurrency = 10
	// DefaultOutputSuffix is appended to the input stem to derive the output path
	DefaultOutputSuffix = "_zh"
	// DefaultFallbackFont is the font applied to translated runs
	DefaultFallbackFont = "SimSun"
)

// Manager manages application configuration
type Manager struct {
	configPath string
	config     *types.Config
}

// NewManager creates a new Manager with the specified config path.
// If configPath is empty, it uses the default path in the user's config directory.
func NewManager(configPath string) (*Manager, error) {
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			logger.Error("failed to get user home directory", err)
			return nil, types.NewAppError(types.ErrConfig, "failed to get user home directory", err)
		}
		configPath = filepath.Join(homeDir, ".config", "docx-translator", DefaultConfigFileName)
	}

	logger.Info("config manager initialized", logger.String("configPath", configPath))
	return &Manager{
		configPath: configPath,
		config:     defaultConfig(),
	}, nil
}

// defaultConfig returns a Config with default values
func defaultConfig() *types.Config {
	return &types.Config{
		OpenAIAPIKey:   "",
		OpenAIBaseURL:  DefaultBaseURL,
		OpenAIModel:    DefaultModel,
		TargetLanguage: DefaultTargetLanguage,
		MaxChunkChars:  DefaultMaxChunkChars,
		Concurrency:    DefaultConcurrency,
		OutputSuffix:   DefaultOutputSuffix,
		FallbackFont:   DefaultFallbackFont,
	}
}

// Load loads configuration from the config file.
// If the file doesn't exist, defaults are used. Environment variables take
// precedence for the API key and base URL when the file values are empty.
func (m *Manager) Load() error {
	logger.Debug("loading configuration", logger.String("path", m.configPath))

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("config file not found, using defaults", logger.String("path", m.configPath))
			m.config = defaultConfig()
		} else {
			logger.Error("failed to read config file", err, logger.String("path", m.configPath))
			return types.NewAppError(types.ErrConfig, "failed to read config file", err)
		}
	} else {
		cfg := &types.Config{}
		if err := json.Unmarshal(data, cfg); err != nil {
			logger.Warn("invalid config file format, using defaults",
				logger.String("path", m.configPath), logger.Err(err))
			m.config = defaultConfig()
		} else {
			logger.Info("configuration loaded",
				logger.String("path", m.configPath),
				logger.Int("apiKeyLength", len(cfg.OpenAIAPIKey)),
				logger.String("baseURL", cfg.OpenAIBaseURL),
				logger.String("model", cfg.OpenAIModel))
			m.config = cfg
		}
	}

	m.applyDefaults()
	m.applyEnvironment()
	return nil
}

// applyDefaults fills in zero-valued fields with defaults
func (m *Manager) applyDefaults() {
	if m.config.OpenAIBaseURL == "" {
		m.config.OpenAIBaseURL = DefaultBaseURL
	}
	if m.config.OpenAIModel == "" {
		m.config.OpenAIModel = DefaultModel
	}
	if m.config.TargetLanguage == "" {
		m.config.TargetLanguage = DefaultTargetLanguage
	}
	if m.config.MaxChunkChars <= 0 {
		m.config.MaxChunkChars = DefaultMaxChunkChars
	}
	if m.config.Concurrency <= 0 {
		m.config.Concurrency = DefaultConcurrency
	}
	if m.config.OutputSuffix == "" {
		m.config.OutputSuffix = DefaultOutputSuffix
	}
	if m.config.FallbackFont == "" {
		m.config.FallbackFont = DefaultFallbackFont
	}
}

// applyEnvironment applies environment variable overrides for empty fields
func (m *Manager) applyEnvironment() {
	if m.config.OpenAIAPIKey == "" {
		if key := os.Getenv(EnvOpenAIAPIKey); key != "" {
			logger.Debug("using API key from environment")
			m.config.OpenAIAPIKey = key
		}
	}
	if baseURL := os.Getenv(EnvOpenAIBaseURL); baseURL != "" {
		m.config.OpenAIBaseURL = baseURL
	}
}

// Save persists the current configuration to the config file.
func (m *Manager) Save() error {
	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("failed to create config directory", err, logger.String("dir", dir))
		return types.NewAppError(types.ErrConfig, "failed to create config directory", err)
	}

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrConfig, "failed to encode config", err)
	}

	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		logger.Error("failed to write config file", err, logger.String("path", m.configPath))
		return types.NewAppError(types.ErrConfig, "failed to write config file", err)
	}

	logger.Info("configuration saved", logger.String("path", m.configPath))
	return nil
}

// Get returns the current configuration.
func (m *Manager) Get() *types.Config {
	return m.config
}
