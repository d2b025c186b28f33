package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the server configuration.
type Config struct {
	Port      int
	DBPath    string
	RedisAddr string // empty disables the loan cache

	// FloorAfterAdditionalReduction re-applies the payable-at-least-principal
	// floor after the additional reduction. Off by default.
	FloorAfterAdditionalReduction bool
}

// Load reads configuration from the environment, with a .env file as an
// optional overlay.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:                          getEnvInt("PORT", 8080),
		DBPath:                        getEnvString("DB_PATH", "pawnbook.db"),
		RedisAddr:                     getEnvString("REDIS_ADDR", ""),
		FloorAfterAdditionalReduction: getEnvBool("FLOOR_AFTER_ADDITIONAL_REDUCTION", false),
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
