package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values
type Config struct {
	AppPort       string `mapstructure:"APP_PORT"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	Env           string `mapstructure:"ENV"`
	JWTSecret     string `mapstructure:"JWT_HMAC_SECRET"`
	StaticTokens  string `mapstructure:"STATIC_TOKENS"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	SlotMinutes   int    `mapstructure:"SLOT_MINUTES"`
	GridStart     string `mapstructure:"GRID_START"`
	GridEnd       string `mapstructure:"GRID_END"`
}

// Global variable to store configuration
var AppConfig Config

// Load initializes Viper to read config values from env, file, or defaults.
func Load() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	// Every key needs a default registered or AutomaticEnv will not
	// pick it up during Unmarshal.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("JWT_HMAC_SECRET", "")
	viper.SetDefault("STATIC_TOKENS", "")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("SLOT_MINUTES", 30)
	viper.SetDefault("GRID_START", "08:00")
	viper.SetDefault("GRID_END", "20:00")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

// IsProduction checks if the environment is production.
func IsProduction() bool {
	return AppConfig.Env == "production"
}
