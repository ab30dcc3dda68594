package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"

	contractx "github.com/tanpawarit/Financial-Swarm-Analyst/agent/contract"
	openrouterx "github.com/tanpawarit/Financial-Swarm-Analyst/pkg/openrouter"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	// Per-worker overrides, e.g. OPENROUTER_WORKER_MODELS=writer:anthropic/claude-3.5-sonnet
	WorkerModels       map[string]string  `envconfig:"WORKER_MODELS" split_words:"true"`
	WorkerTemperatures map[string]float32 `envconfig:"WORKER_TEMPERATURES" split_words:"true"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	for id, t := range c.WorkerTemperatures {
		if t < 0 || t > 2 {
			return fmt.Errorf("%w: temperature for worker %s must be within [0, 2]", contractx.ErrValidation, id)
		}
	}
	return nil
}

func (c Config) OpenRouterFor(id contractx.WorkerID) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	if v := strings.TrimSpace(c.WorkerModels[string(id)]); v != "" {
		modelName = v
	}
	temp := c.Temperature
	if v, ok := c.WorkerTemperatures[string(id)]; ok {
		temp = v
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}

// NewChatModel matches specialist.ModelFactory.
func (c Config) NewChatModel(ctx context.Context, id contractx.WorkerID) (einomodel.ToolCallingChatModel, error) {
	conf := c.OpenRouterFor(id)
	return conf.New(ctx)
}
