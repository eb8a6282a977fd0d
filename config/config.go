package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	MQTT     MQTTConfig
	Pipeline PipelineConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins string
}

type MQTTConfig struct {
	URL   string
	Topic string
}

// PipelineConfig carries the scoring knobs. AsOf is empty in production
// (the scorer binary passes its own clock reading down); setting it pins the
// reference instant for reproducible runs.
type PipelineConfig struct {
	AsOf                string
	HorizonDays         int
	DemandWindowDays    int
	MinTrainPositives   int
	CriticalProbability float64
	CriticalPriority    float64
	RunIntervalSec      int
	OutputDir           string
	MetricsAddr         string
}

func LoadConfig() (*Config, error) {
	serverPort, err := getIntEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := getIntEnv("DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	redisPort, err := getIntEnv("REDIS_PORT", 6379)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}

	redisDB, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	horizonDays, err := getIntEnv("HORIZON_DAYS", 90)
	if err != nil {
		return nil, fmt.Errorf("invalid HORIZON_DAYS: %w", err)
	}

	demandWindowDays, err := getIntEnv("DEMAND_WINDOW_DAYS", 90)
	if err != nil {
		return nil, fmt.Errorf("invalid DEMAND_WINDOW_DAYS: %w", err)
	}

	minPositives, err := getIntEnv("MIN_TRAIN_POSITIVES", 25)
	if err != nil {
		return nil, fmt.Errorf("invalid MIN_TRAIN_POSITIVES: %w", err)
	}

	criticalProb, err := getFloatEnv("CRITICAL_PROBABILITY", 0.8)
	if err != nil {
		return nil, fmt.Errorf("invalid CRITICAL_PROBABILITY: %w", err)
	}

	criticalPriority, err := getFloatEnv("CRITICAL_PRIORITY", 80)
	if err != nil {
		return nil, fmt.Errorf("invalid CRITICAL_PRIORITY: %w", err)
	}

	runInterval, err := getIntEnv("RUN_INTERVAL_SEC", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid RUN_INTERVAL_SEC: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: serverPort,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "infrascore"),
			Password: getEnv("DB_PASSWORD", "infrascore_dev_password"),
			Name:     getEnv("DB_NAME", "infrascore"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     redisPort,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		MQTT: MQTTConfig{
			URL:   getEnv("MQTT_URL", "tcp://localhost:1883"),
			Topic: getEnv("MQTT_TOPIC", "infrascore/demand/+"),
		},
		Pipeline: PipelineConfig{
			AsOf:                getEnv("AS_OF", ""),
			HorizonDays:         horizonDays,
			DemandWindowDays:    demandWindowDays,
			MinTrainPositives:   minPositives,
			CriticalProbability: criticalProb,
			CriticalPriority:    criticalPriority,
			RunIntervalSec:      runInterval,
			OutputDir:           getEnv("OUTPUT_DIR", ""),
			MetricsAddr:         getEnv("METRICS_ADDR", ":8081"),
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func getFloatEnv(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}
