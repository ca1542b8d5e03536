package config

import "os"

type AppConfig struct {
	DebugMode      bool
	HTTPPort       int
	FleetConfig    *FleetConfig
	DispatchConfig *DispatchConfig
	HealthConfig   *HealthConfig
	RedisConfig    *RedisConfig
	PostgresConfig *PostgresConfig
	AuthConfig     *AuthConfig
}

func NewSystemConfig() (*AppConfig, error) {
	fleetCfg, err := NewFleetConfig()
	if err != nil {
		return nil, err
	}
	return &AppConfig{
		DebugMode:      os.Getenv("DEBUG_MODE") == "true",
		HTTPPort:       getIntEnv("HTTP_PORT", 8082),
		FleetConfig:    fleetCfg,
		DispatchConfig: NewDispatchConfig(fleetCfg),
		HealthConfig:   NewHealthConfig(),
		RedisConfig:    NewRedisConfig(),
		PostgresConfig: NewPostgresConfig(),
		AuthConfig:     NewAuthConfig(),
	}, nil
}
