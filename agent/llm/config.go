package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/chative-customer-service/agent/contract"
	openrouterx "github.com/tanpawarit/chative-customer-service/pkg/openrouter"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
	MaxToolRounds      int           `envconfig:"MAX_TOOL_ROUNDS" split_words:"true" default:"5"`

	RouterModel           string  `envconfig:"ROUTER_MODEL" split_words:"true"`
	CustomerModel         string  `envconfig:"CUSTOMER_MODEL" split_words:"true"`
	RetrievalModel        string  `envconfig:"RETRIEVAL_MODEL" split_words:"true"`
	BookingModel          string  `envconfig:"BOOKING_MODEL" split_words:"true"`
	SummarizerModel       string  `envconfig:"SUMMARIZER_MODEL" split_words:"true"`
	RouterTemperature     float32 `envconfig:"ROUTER_TEMPERATURE" split_words:"true" default:"-1"`
	BookingTemperature    float32 `envconfig:"BOOKING_TEMPERATURE" split_words:"true" default:"-1"`
	SummarizerTemperature float32 `envconfig:"SUMMARIZER_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	if c.MaxToolRounds < 1 {
		return fmt.Errorf("%w: max tool rounds must be >= 1", contractx.ErrValidation)
	}
	return nil
}

func (c Config) OpenRouterFor(agentType contractx.AgentType) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	override := func(model string, t float32) {
		if v := strings.TrimSpace(model); v != "" {
			modelName = v
		}
		if t >= 0 {
			temp = t
		}
	}

	switch agentType {
	case contractx.AgentTypeRouter:
		override(c.RouterModel, c.RouterTemperature)
	case contractx.AgentTypeCustomer:
		override(c.CustomerModel, -1)
	case contractx.AgentTypeRetrieval:
		override(c.RetrievalModel, -1)
	case contractx.AgentTypeBooking:
		override(c.BookingModel, c.BookingTemperature)
	case contractx.AgentTypeSummarizer:
		override(c.SummarizerModel, c.SummarizerTemperature)
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
