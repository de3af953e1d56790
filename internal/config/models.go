package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ModelInfo is one entry in the provider→model lookup table. BaseURL may
// reference environment variables ("${OLLAMA_HOST}/v1"); APIEnv names the
// environment variable holding the API key rather than the key itself.
type ModelInfo struct {
	ModelID string `yaml:"model_id"`
	BaseURL string `yaml:"base_url"`
	APIEnv  string `yaml:"api_env"`
}

// Models maps provider name → model name → ModelInfo.
type Models map[string]map[string]ModelInfo

// LoadModels reads the models YAML table at path.
func LoadModels(path string) (Models, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read models config %s: %w", path, err)
	}
	var m Models
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse models config %s: %w", path, err)
	}
	return m, nil
}

// Lookup resolves a provider/model pair to its ModelInfo.
func (m Models) Lookup(provider, model string) (ModelInfo, error) {
	byModel, ok := m[provider]
	if !ok {
		return ModelInfo{}, fmt.Errorf("unsupported provider: %s", provider)
	}
	info, ok := byModel[model]
	if !ok {
		return ModelInfo{}, fmt.Errorf("unsupported model %q for provider %s", model, provider)
	}
	return info, nil
}
