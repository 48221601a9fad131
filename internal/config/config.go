package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	DynamoTables DynamoTables
	S3BucketName string

	JWTSecret           string
	AccessTokenHours    int
	RefreshTokenDays    int
	ReturnEncryptionKey string // age X25519 identity (AGE-SECRET-KEY-1...)

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion string

	AdminSeedEmail    string
	AdminSeedPassword string
	AdminSeedName     string

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users           string
	UserIdentifiers string
	OtpChallenges   string
	AdminUsers      string
	Documents       string
	TaxReturns      string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		DynamoTables: DynamoTables{
			Users:           getEnv("DYNAMO_TABLE_USERS", "users"),
			UserIdentifiers: getEnv("DYNAMO_TABLE_USER_IDENTIFIERS", "user_identifiers"),
			OtpChallenges:   getEnv("DYNAMO_TABLE_OTP_CHALLENGES", "otp_challenges"),
			AdminUsers:      getEnv("DYNAMO_TABLE_ADMIN_USERS", "admin_users"),
			Documents:       getEnv("DYNAMO_TABLE_DOCUMENTS", "documents"),
			TaxReturns:      getEnv("DYNAMO_TABLE_TAX_RETURNS", "tax_returns"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "tax-intake-documents"),

		JWTSecret:           getEnv("JWT_SECRET", ""),
		AccessTokenHours:    getEnvInt("ACCESS_TOKEN_EXPIRY_HOURS", 24),
		RefreshTokenDays:    getEnvInt("REFRESH_TOKEN_EXPIRY_DAYS", 7),
		ReturnEncryptionKey: getEnv("RETURN_ENCRYPTION_KEY", ""),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion: getEnv("SNS_REGION", "us-east-1"),

		AdminSeedEmail:    getEnv("ADMIN_SEED_EMAIL", ""),
		AdminSeedPassword: getEnv("ADMIN_SEED_PASSWORD", ""),
		AdminSeedName:     getEnv("ADMIN_SEED_NAME", "Administrator"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
