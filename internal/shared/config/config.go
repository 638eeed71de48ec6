package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	DatabaseURL     string
	Env             string
	LogLevel        string
	LogFormat       string
	FrontendURL     string

	// Decision engine and reconciliation.
	FinalScoreThreshold   float64
	CVWeight              float64
	InterviewWeight       float64
	AutomationInterval    time.Duration
	AutomationDelay       time.Duration
	AutomationCallTimeout time.Duration
	AutomationToken       string
	AutomationAPIBase     string

	// Interview question generation and AI scoring.
	InterviewQuestionCount int
	LLMProvider            string
	LLMModel               string
	OpenAIAPIKey           string
	GeminiAPIKey           string
	LLMTimeout             time.Duration

	// Notifications.
	NotifyTimeout         time.Duration
	WebhookURL            string
	ApplicationWebhookURL string
	InterviewWebhookURL   string
	StatusWebhookURL      string
	NotifySQSQueueURL     string
	AWSRegion             string
	AMQPURL               string
	AMQPExchange          string
	SMTPHost              string
	SMTPPort              string
	SMTPUser              string
	SMTPPass              string
	EmailFrom             string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env", "automation.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:     dbURL,
		Env:             env,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		FrontendURL:     strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),

		FinalScoreThreshold:   getFloat("FINAL_SCORE_THRESHOLD", 65),
		CVWeight:              getFloat("CV_WEIGHT", 0.4),
		InterviewWeight:       getFloat("INTERVIEW_WEIGHT", 0.6),
		AutomationInterval:    getDuration("AUTOMATION_INTERVAL", 5*time.Minute),
		AutomationDelay:       getDuration("AUTOMATION_DELAY", 200*time.Millisecond),
		AutomationCallTimeout: getDuration("AUTOMATION_CALL_TIMEOUT", 15*time.Second),
		AutomationToken:       normalizeBearer(getEnv("AUTOMATION_TOKEN", "")),
		AutomationAPIBase:     strings.TrimRight(getEnv("AUTOMATION_API_BASE", "http://localhost:8080/api/v1"), "/"),

		InterviewQuestionCount: getInt("INTERVIEW_QUESTION_COUNT", 6),
		LLMProvider:            normalizeProvider(getEnv("LLM_PROVIDER", "none")),
		LLMModel:               getEnv("LLM_MODEL", ""),
		OpenAIAPIKey:           getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:           getEnv("GEMINI_API_KEY", ""),
		LLMTimeout:             getDuration("LLM_TIMEOUT", 20*time.Second),

		NotifyTimeout:         getDuration("NOTIFY_TIMEOUT", 10*time.Second),
		WebhookURL:            getEnv("WEBHOOK_URL", ""),
		ApplicationWebhookURL: getEnv("APPLICATION_WEBHOOK_URL", ""),
		InterviewWebhookURL:   getEnv("INTERVIEW_WEBHOOK_URL", ""),
		StatusWebhookURL:      getEnv("STATUS_WEBHOOK_URL", ""),
		NotifySQSQueueURL:     getEnv("NOTIFY_SQS_QUEUE_URL", ""),
		AWSRegion:             getEnv("AWS_REGION", "us-east-1"),
		AMQPURL:               getEnv("AMQP_URL", ""),
		AMQPExchange:          getEnv("AMQP_EXCHANGE", "hiremate.events"),
		SMTPHost:              getEnv("SMTP_HOST", ""),
		SMTPPort:              getEnv("SMTP_PORT", "587"),
		SMTPUser:              getEnv("SMTP_USER", ""),
		SMTPPass:              getEnv("SMTP_PASS", ""),
		EmailFrom:             getEnv("EMAIL_FROM", "HireMate <no-reply@hiremate.local>"),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config %s invalid float: %v", key, err)
		return def
	}
	return val
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		log.Printf("config %s invalid int: %q", key, raw)
		return def
	}
	return val
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil || val < 0 {
		log.Printf("config %s invalid duration: %q", key, raw)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// normalizeBearer accepts the token with or without a "Bearer " prefix.
func normalizeBearer(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "test":
		return "test"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "gemini", "google":
		return "gemini"
	default:
		return "none"
	}
}
