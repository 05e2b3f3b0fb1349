package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/siteforge/domainops/internal/logger"
	"github.com/siteforge/domainops/internal/tracing"
)

type Config struct {
	AppConfig        *AppConfig
	Logger           *logger.Config
	Tracing          *tracing.JaegerConfig
	DatabaseConfig   *DatabaseConfig
	DomainConfig     *DomainConfig
	NamecheapConfig  *NamecheapConfig
	CloudflareConfig *CloudflareConfig
	CPanelConfig     *CPanelConfig
	OpenAIConfig     *OpenAIConfig
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:        &AppConfig{},
		Logger:           &logger.Config{},
		Tracing:          &tracing.JaegerConfig{},
		DatabaseConfig:   &DatabaseConfig{},
		DomainConfig:     &DomainConfig{},
		NamecheapConfig:  &NamecheapConfig{},
		CloudflareConfig: &CloudflareConfig{},
		CPanelConfig:     &CPanelConfig{},
		OpenAIConfig:     &OpenAIConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		log.Fatalf("Error loading domainops config: %v", err)
	}

	return config, nil
}
