package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatLLMS = "llms"
)

// DefaultLLMSOutput каталог для формата llms, если output не задан
const DefaultLLMSOutput = "./llms"

type Config struct {
	Source       string `json:"source" yaml:"source"`
	Methods      string `json:"methods" yaml:"methods"`           // файл со списком методов
	SelectionKey string `json:"selectionKey" yaml:"selectionKey"` // ключ списка в файле методов
	Output       string `json:"output" yaml:"output"`             // файл или каталог (llms); пусто: stdout
	Format       string `json:"format" yaml:"format"`             // text, json, yaml, llms
	Title        string `json:"title" yaml:"title"`
	BaseURL      string `json:"baseUrl" yaml:"baseUrl"`
	Strict       bool   `json:"strict" yaml:"strict"`
	ExpandRefs   bool   `json:"expandRefs" yaml:"expandRefs"`
	MaxDepth     int    `json:"maxDepth" yaml:"maxDepth"`
	Workers      int    `json:"workers" yaml:"workers"`
	ValidateSpec bool   `json:"validate" yaml:"validate"` // проверить спецификацию через kin-openapi
	LogLevel     string `json:"logLevel" yaml:"logLevel"`
}

func DefaultConfig() *Config {
	return &Config{
		SelectionKey: "mcp_methods",
		Format:       FormatText,
		MaxDepth:     32,
		Workers:      1,
		LogLevel:     "info",
	}
}

// LoadFromFile читает JSON или YAML конфиг поверх значений по умолчанию
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Source == "" {
		return ErrSourceRequired
	}
	if c.Methods == "" {
		return ErrMethodsRequired
	}
	switch c.Format {
	case FormatText, FormatJSON, FormatYAML, FormatLLMS:
	default:
		return ErrUnknownFormat
	}
	if c.MaxDepth < 0 || c.Workers < 0 {
		return ErrNegativeLimit
	}
	return nil
}

// OutputDir каталог для формата llms
func (c *Config) OutputDir() string {
	if c.Output == "" {
		return DefaultLLMSOutput
	}
	return c.Output
}
