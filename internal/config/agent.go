package config

import (
	"fmt"
	"os"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

const (
	EnvAgentProviderName = "VERDANT_AGENT_PROVIDER_NAME"
	EnvAgentBaseURL      = "VERDANT_AGENT_BASE_URL"
	EnvAgentToken        = "VERDANT_AGENT_TOKEN"
	EnvAgentDeployment   = "VERDANT_AGENT_DEPLOYMENT"
	EnvAgentAPIVersion   = "VERDANT_AGENT_API_VERSION"
	EnvAgentAuthType     = "VERDANT_AGENT_AUTH_TYPE"
	EnvAgentModelName    = "VERDANT_AGENT_MODEL_NAME"

	DefaultAgentName     = "verdant"
	DefaultAgentProvider = "ollama"
	DefaultAgentBaseURL  = "http://localhost:11434"
	DefaultAgentModel    = "llama3.1"
)

// FinalizeAgent finalizes a go-agents AgentConfig: go-agents defaults overlaid with
// Verdant's ollama/llama3.1 defaults, then the file config, then environment overrides.
func FinalizeAgent(c *gaconfig.AgentConfig) error {
	loadAgentDefaults(c)
	loadAgentEnv(c)
	return validateAgent(c)
}

func loadAgentDefaults(c *gaconfig.AgentConfig) {
	defaults := gaconfig.DefaultAgentConfig()
	defaults.Merge(&gaconfig.AgentConfig{
		Name: DefaultAgentName,
		Provider: &gaconfig.ProviderConfig{
			Name:    DefaultAgentProvider,
			BaseURL: DefaultAgentBaseURL,
		},
		Model: &gaconfig.ModelConfig{
			Name: DefaultAgentModel,
		},
	})
	defaults.Merge(c)
	*c = defaults
}

func loadAgentEnv(c *gaconfig.AgentConfig) {
	if c.Provider == nil {
		c.Provider = &gaconfig.ProviderConfig{}
	}
	if c.Provider.Options == nil {
		c.Provider.Options = make(map[string]any)
	}
	if c.Model == nil {
		c.Model = &gaconfig.ModelConfig{}
	}
	if v := os.Getenv(EnvAgentProviderName); v != "" {
		c.Provider.Name = v
	}
	if v := os.Getenv(EnvAgentBaseURL); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv(EnvAgentModelName); v != "" {
		c.Model.Name = v
	}

	setOption := func(envVar, key string) {
		if v := os.Getenv(envVar); v != "" {
			c.Provider.Options[key] = v
		}
	}

	setOption(EnvAgentToken, "token")
	setOption(EnvAgentDeployment, "deployment")
	setOption(EnvAgentAPIVersion, "api_version")
	setOption(EnvAgentAuthType, "auth_type")
}

func validateAgent(c *gaconfig.AgentConfig) error {
	if c.Name == "" {
		return fmt.Errorf("name required")
	}
	if c.Provider == nil {
		return fmt.Errorf("provider required")
	}
	if c.Provider.Name == "" {
		return fmt.Errorf("provider name required")
	}
	if c.Model == nil {
		return fmt.Errorf("model required")
	}
	return nil
}
