package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/customeros/formlayer/internal/logger"
	"github.com/customeros/formlayer/internal/tracing"
)

type Config struct {
	AppConfig        *AppConfig
	DataLayerConfig  *DataLayerConfig
	Logger           *logger.Config
	Tracing          *tracing.JaegerConfig
	DatabaseConfig   *DatabaseConfig
	R2StorageConfig  *R2StorageConfig
	KubernetesConfig *KubernetesConfig
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:        &AppConfig{},
		DataLayerConfig:  &DataLayerConfig{},
		Logger:           &logger.Config{},
		Tracing:          &tracing.JaegerConfig{},
		DatabaseConfig:   &DatabaseConfig{},
		R2StorageConfig:  &R2StorageConfig{},
		KubernetesConfig: &KubernetesConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		return nil, err
	}

	return config, nil
}
