package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/kittipos/clinic-concierge/agent/contract"
	openrouterx "github.com/kittipos/clinic-concierge/pkg/openrouter"
)

// Config routes each persona (and the SQL generator) to its model. Every
// field falls back to the defaults unless overridden.
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	PatientModel       string  `envconfig:"PATIENT_MODEL" split_words:"true"`
	DoctorModel        string  `envconfig:"DOCTOR_MODEL" split_words:"true"`
	SQLModel           string  `envconfig:"SQL_MODEL" split_words:"true"`
	PatientTemperature float32 `envconfig:"PATIENT_TEMPERATURE" split_words:"true" default:"-1"`
	DoctorTemperature  float32 `envconfig:"DOCTOR_TEMPERATURE" split_words:"true" default:"-1"`
	SQLTemperature     float32 `envconfig:"SQL_TEMPERATURE" split_words:"true" default:"0"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// OpenRouterFor resolves the model settings for one persona.
func (c Config) OpenRouterFor(persona contractx.Persona) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch persona {
	case contractx.PersonaPatient:
		if v := strings.TrimSpace(c.PatientModel); v != "" {
			modelName = v
		}
		if c.PatientTemperature >= 0 {
			temp = c.PatientTemperature
		}
	case contractx.PersonaDoctor:
		if v := strings.TrimSpace(c.DoctorModel); v != "" {
			modelName = v
		}
		if c.DoctorTemperature >= 0 {
			temp = c.DoctorTemperature
		}
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

// OpenRouterForSQL resolves the single-shot SQL generation settings.
func (c Config) OpenRouterForSQL() openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	if v := strings.TrimSpace(c.SQLModel); v != "" {
		modelName = v
	}
	temp := c.Temperature
	if c.SQLTemperature >= 0 {
		temp = c.SQLTemperature
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
