/**
 * @description
 * This file handles the configuration management for the webhook service.
 * It uses the Viper library to read settings from environment variables or a
 * local .env file.
 *
 * @dependencies
 * - github.com/spf13/viper: A powerful configuration library for Go applications.
 *
 * @notes
 * - DefaultWebhookSecret is the insecure development sentinel inherited from
 *   the original deployment. While the configured secret equals it (or is
 *   empty), signature validation is bypassed entirely and a warning is logged
 *   on every delivery. Production deployments must set CAKTO_WEBHOOK_SECRET.
 */
package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// DefaultWebhookSecret disables signature validation when left in place.
const DefaultWebhookSecret = "nutraflex_webhook_secret_2025"

// Config stores all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	ServerPort              string `mapstructure:"SERVER_PORT"`
	AppEnv                  string `mapstructure:"APP_ENV"`
	DatabaseURL             string `mapstructure:"DATABASE_URL"`
	CaktoWebhookSecret      string `mapstructure:"CAKTO_WEBHOOK_SECRET"`
	WebhookCallbackURL      string `mapstructure:"WEBHOOK_CALLBACK_URL"`
	FirebaseCredentialsPath string `mapstructure:"FIREBASE_CREDENTIALS_PATH"`
	FirebaseCredentialsJSON string `mapstructure:"FIREBASE_CREDENTIALS_JSON"`
	CORSAllowedOrigins      string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (config Config, err error) {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.SetDefault("SERVER_PORT", "5001")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("CAKTO_WEBHOOK_SECRET", DefaultWebhookSecret)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind env vars explicitly
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("APP_ENV")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("CAKTO_WEBHOOK_SECRET")
	_ = viper.BindEnv("WEBHOOK_CALLBACK_URL")
	_ = viper.BindEnv("FIREBASE_CREDENTIALS_PATH")
	_ = viper.BindEnv("FIREBASE_CREDENTIALS_JSON")
	_ = viper.BindEnv("CORS_ALLOWED_ORIGINS")

	// Read the config file if it exists.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
		err = nil
	}

	// Unmarshal the config into the Config struct.
	if err = viper.Unmarshal(&config); err != nil {
		return Config{}, err
	}

	if config.UsesDefaultWebhookSecret() {
		log.Println("Warning: CAKTO_WEBHOOK_SECRET is unset or uses the default value. Webhook signature validation is DISABLED.")
	}

	return
}

// UsesDefaultWebhookSecret reports whether the insecure development bypass is
// active.
func (c Config) UsesDefaultWebhookSecret() bool {
	return c.CaktoWebhookSecret == "" || c.CaktoWebhookSecret == DefaultWebhookSecret
}

// IsDevelopment reports whether the dev-only test endpoints should be served.
func (c Config) IsDevelopment() bool {
	return c.AppEnv != "production"
}
