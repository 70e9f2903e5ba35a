package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	JWTSecret         string
	JWTTTL            time.Duration
	MaxSessions       int
	DefaultMonthlyFee int
	CORSOrigins       string
	AssistantRate     int
	WhatsApp          WhatsAppConfig
	Reminder          ScheduleConfig
	Promotion         ScheduleConfig
	Cloudinary        CloudinaryConfig
	AI                AIConfig
}

// WhatsAppConfig configures the WhatsApp Cloud API client.
type WhatsAppConfig struct {
	AccessToken        string
	PhoneNumberID      string
	GraphURL           string
	APIVersion         string
	DefaultCountryCode string
	FeePaidTemplate    string
	ReminderTemplate   string
	TemplateLanguage   string
}

// Enabled reports whether outgoing messages can be delivered.
func (w WhatsAppConfig) Enabled() bool {
	return w.AccessToken != "" && w.PhoneNumberID != ""
}

// ScheduleConfig describes a cron job.
type ScheduleConfig struct {
	Cron     string
	Timezone string
}

// CloudinaryConfig configures receipt uploads.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Enabled reports whether receipts can be uploaded.
func (c CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// AIConfig configures the optional prompt rewriter.
type AIConfig struct {
	RewriterEnabled bool
	OpenAIAPIKey    string
	Model           string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("FEEDESK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "FeeDesk API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("jwt.ttl", "168h")
	v.SetDefault("session.max_per_user", 2)
	v.SetDefault("fee.default", 600)
	v.SetDefault("cors.origins", "*")
	v.SetDefault("assistant.rate_limit", 30)
	v.SetDefault("whatsapp.graph_url", "https://graph.facebook.com")
	v.SetDefault("whatsapp.api_version", "v20.0")
	v.SetDefault("whatsapp.default_country_code", "91")
	v.SetDefault("whatsapp.template_lang", "en")
	v.SetDefault("reminder.cron", "0 9 * * *")
	v.SetDefault("reminder.timezone", "Asia/Kolkata")
	v.SetDefault("promotion.cron", "0 0 1 3 *")
	v.SetDefault("promotion.timezone", "Asia/Kolkata")
	v.SetDefault("cloudinary.folder", "feedesk/receipts")
	v.SetDefault("ai.rewriter_enabled", false)
	v.SetDefault("ai.model", "gpt-4o-mini")

	ttlString := v.GetString("jwt.ttl")
	if ttlString == "" {
		ttlString = "168h"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt ttl: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		JWTSecret:         v.GetString("jwt.secret"),
		JWTTTL:            ttl,
		MaxSessions:       v.GetInt("session.max_per_user"),
		DefaultMonthlyFee: v.GetInt("fee.default"),
		CORSOrigins:       v.GetString("cors.origins"),
		AssistantRate:     v.GetInt("assistant.rate_limit"),
		WhatsApp: WhatsAppConfig{
			AccessToken:        v.GetString("whatsapp.access_token"),
			PhoneNumberID:      v.GetString("whatsapp.phone_number_id"),
			GraphURL:           strings.TrimRight(v.GetString("whatsapp.graph_url"), "/"),
			APIVersion:         v.GetString("whatsapp.api_version"),
			DefaultCountryCode: v.GetString("whatsapp.default_country_code"),
			FeePaidTemplate:    v.GetString("whatsapp.fee_paid_template"),
			ReminderTemplate:   v.GetString("whatsapp.reminder_template"),
			TemplateLanguage:   v.GetString("whatsapp.template_lang"),
		},
		Reminder: ScheduleConfig{
			Cron:     v.GetString("reminder.cron"),
			Timezone: v.GetString("reminder.timezone"),
		},
		Promotion: ScheduleConfig{
			Cron:     v.GetString("promotion.cron"),
			Timezone: v.GetString("promotion.timezone"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: v.GetString("cloudinary.cloud_name"),
			APIKey:    v.GetString("cloudinary.api_key"),
			APISecret: v.GetString("cloudinary.api_secret"),
			Folder:    v.GetString("cloudinary.folder"),
		},
		AI: AIConfig{
			RewriterEnabled: v.GetBool("ai.rewriter_enabled"),
			OpenAIAPIKey:    v.GetString("openai_api_key"),
			Model:           v.GetString("ai.model"),
		},
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 2
	}

	if cfg.DefaultMonthlyFee <= 0 {
		cfg.DefaultMonthlyFee = 600
	}

	if cfg.AssistantRate <= 0 {
		cfg.AssistantRate = 30
	}

	return cfg, nil
}
