package config

import "os"

type R2 struct {
	AccountID     string
	AccessKey     string
	SecretKey     string
	BucketName    string
	PublicBaseURL string
}

type LinkedIn struct {
	AccessToken string
	AuthorURN   string
}

type Instagram struct {
	AccessToken string
	AccountID   string
}

type Config struct {
	Port                 string
	PostgresURI          string
	RedisURI             string
	RabbitMQURL          string
	SecretKey            string
	DispatchMode         string // "direct" or "webhook"
	AutomationWebhookURL string
	DispatchLookahead    string // duration string, e.g. "5m"
	SchedulerEnabled     bool
	SchedulerSpec        string
	LinkedIn             LinkedIn
	Instagram            Instagram
	R2                   R2
}

func LoadConfig() *Config {
	return &Config{
		Port:                 getEnv("PORT", "3000"),
		PostgresURI:          getEnv("POSTGRES_URI", ""),
		RedisURI:             getEnv("REDIS_URI", ""),
		RabbitMQURL:          getEnv("RABBITMQ_URL", ""),
		SecretKey:            getEnv("SECRET_KEY", ""),
		DispatchMode:         getEnv("DISPATCH_MODE", "direct"),
		AutomationWebhookURL: getEnv("AUTOMATION_WEBHOOK_URL", ""),
		DispatchLookahead:    getEnv("DISPATCH_LOOKAHEAD", "5m"),
		SchedulerEnabled:     getEnv("SCHEDULER_ENABLED", "") == "true",
		SchedulerSpec:        getEnv("SCHEDULER_SPEC", "@every 0h1m0s"),
		LinkedIn: LinkedIn{
			AccessToken: getEnv("LINKEDIN_ACCESS_TOKEN", ""),
			AuthorURN:   getEnv("LINKEDIN_AUTHOR_URN", ""),
		},
		Instagram: Instagram{
			AccessToken: getEnv("INSTAGRAM_ACCESS_TOKEN", ""),
			AccountID:   getEnv("INSTAGRAM_ACCOUNT_ID", ""),
		},
		R2: R2{
			AccountID:     getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:     getEnv("R2_ACCESS_KEY", ""),
			SecretKey:     getEnv("R2_SECRET_KEY", ""),
			BucketName:    getEnv("R2_BUCKET_NAME", ""),
			PublicBaseURL: getEnv("R2_PUBLIC_BASE_URL", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
