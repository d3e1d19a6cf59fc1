package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all user-facing configuration for geowise.
type Config struct {
	Data    DataConfig    `toml:"data"`
	Server  ServerConfig  `toml:"server"`
	Extract ExtractConfig `toml:"extract"`
}

type DataConfig struct {
	Dir string `toml:"dir"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type ExtractConfig struct {
	// Model selects which deployment to use: "chatgpt" or "gpt4".
	Model string `toml:"model"`
	// CountryCode optionally constrains geocode searches (ISO 3166 alpha-2).
	CountryCode string `toml:"country_code"`
}

// Defaults returns a Config populated with built-in default values.
func Defaults() *Config {
	return &Config{
		Data:    DataConfig{Dir: "data"},
		Server:  ServerConfig{Host: "localhost", Port: 8080},
		Extract: ExtractConfig{Model: "chatgpt"},
	}
}

// Load reads a TOML config file. If the file does not exist, built-in
// defaults are returned without error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Provider holds credentials and endpoints for the completion and geocoding
// providers, supplied via environment variables.
type Provider struct {
	OpenAIEndpoint    string
	OpenAIAPIVersion  string
	OpenAIKey         string
	ChatGPTDeployment string
	GPT4Deployment    string
	MapsKey           string
}

// Env var names required by ProviderEnv.
const (
	EnvOpenAIEndpoint    = "AZURE_OPENAI_API_ENDPOINT"
	EnvOpenAIAPIVersion  = "AZURE_OPENAI_API_VERSION"
	EnvOpenAIKey         = "AZURE_OPENAI_SERVICE_KEY"
	EnvChatGPTDeployment = "AZURE_OPENAI_CHATGPT_DEPLOYMENT"
	EnvGPT4Deployment    = "AZURE_OPENAI_GPT4_DEPLOYMENT"
	EnvMapsKey           = "AZURE_MAPS_KEY"
)

// MissingKeysError reports every required environment variable that was
// absent, in one error.
type MissingKeysError struct {
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("missing environment variables: %s", strings.Join(e.Keys, ", "))
}

// ProviderEnv reads all provider settings from the environment. It validates
// every key before returning, so a single failure names the full set of
// missing variables.
func ProviderEnv() (*Provider, error) {
	vals := map[string]string{
		EnvOpenAIEndpoint:    "",
		EnvOpenAIAPIVersion:  "",
		EnvOpenAIKey:         "",
		EnvChatGPTDeployment: "",
		EnvGPT4Deployment:    "",
		EnvMapsKey:           "",
	}

	var missing []string
	for key := range vals {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			missing = append(missing, key)
			continue
		}
		vals[key] = v
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingKeysError{Keys: missing}
	}

	return &Provider{
		OpenAIEndpoint:    vals[EnvOpenAIEndpoint],
		OpenAIAPIVersion:  vals[EnvOpenAIAPIVersion],
		OpenAIKey:         vals[EnvOpenAIKey],
		ChatGPTDeployment: vals[EnvChatGPTDeployment],
		GPT4Deployment:    vals[EnvGPT4Deployment],
		MapsKey:           vals[EnvMapsKey],
	}, nil
}

// Deployment maps a model selector ("chatgpt" or "gpt4") to the configured
// deployment name.
func (p *Provider) Deployment(model string) (string, error) {
	switch model {
	case "chatgpt":
		return p.ChatGPTDeployment, nil
	case "gpt4":
		return p.GPT4Deployment, nil
	default:
		return "", fmt.Errorf("unknown model %q (want chatgpt or gpt4)", model)
	}
}
