package providers

import (
	"os"

	"github.com/7divs7/mcp-hub/internal/config"
	"github.com/7divs7/mcp-hub/internal/schema"
)

// FromModels resolves a provider/model pair against the models table and
// constructs the matching provider. BaseURL is env-expanded so entries like
// "${OLLAMA_HOST}/v1" work; the API key is read from the env var the entry
// names.
func FromModels(models config.Models, provider, model string) (schema.LLMProvider, error) {
	info, err := models.Lookup(provider, model)
	if err != nil {
		return nil, err
	}
	base := os.ExpandEnv(info.BaseURL)
	apiKey := os.Getenv(info.APIEnv)
	return NewOpenAIProvider(apiKey, base, info.ModelID, provider), nil
}
