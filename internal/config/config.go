package config

import (
	"encoding/base64"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"

	"github.com/certistudy/deletion-service/internal/utils"
)

// Config holds all application configuration, including secrets and the
// static flags fetched once at startup.
type Config struct {
	OrganizationName string
	AppName          string
	AppPort          string
	AppDomain        string
	SenderEmail      string
	CORSOrigin       string

	DBUrl           string
	DBEncryptionKey []byte

	IdentityAPIURL    string
	IdentityAPIKey    string
	IdentityAPISecret string

	SendGridAPIKey string

	TokenTTL time.Duration

	// Static flags fetched once from LaunchDarkly (defaults apply when
	// no LD_SDK_KEY is configured).
	LDFlag_SendgridSandboxMode bool
	LDFlag_ShortTokenTTL       bool
}

const (
	OrganizationName = "CertiStudy"
	AppName          = "deletion-service"

	DefaultAppDomain   = "https://app.certistudy.io"
	DefaultSenderEmail = "no-reply@certistudy.io"

	// DeletionTokenTTL is the fixed lifetime of a confirmation link.
	DeletionTokenTTL  = 1 * time.Hour
	TestShortTokenTTL = 3 * time.Second

	LDConnectionTimeout = 5 * time.Second
	LDContextKind       = "service"
)

// LoadConfig reads the environment (a local .env is honored for dev),
// fetches static flags from LaunchDarkly when a key is present, and
// returns a *Config. Missing required variables are fatal.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		utils.Logger.Info("No .env file found. Using system environment variables.")
	}

	dbEncryptionKeyBase64 := mustEnv("DB_ENCRYPTION_KEY_BASE64")
	decodedKey, err := base64.StdEncoding.DecodeString(dbEncryptionKeyBase64)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to decode DB_ENCRYPTION_KEY_BASE64 from base64")
	}
	if len(decodedKey) != 32 {
		utils.Logger.Fatal("DBEncryptionKey must be 32 bytes for AES-256 encryption")
	}

	cfg := &Config{
		OrganizationName:  OrganizationName,
		AppName:           AppName,
		AppPort:           getEnv("APP_PORT", "8080"),
		AppDomain:         getEnv("APP_DOMAIN", DefaultAppDomain),
		SenderEmail:       getEnv("SENDER_EMAIL", DefaultSenderEmail),
		CORSOrigin:        getEnv("CORS_ORIGIN", DefaultAppDomain),
		DBUrl:             mustEnv("DB_URL"),
		DBEncryptionKey:   decodedKey,
		IdentityAPIURL:    mustEnv("IDENTITY_API_URL"),
		IdentityAPIKey:    mustEnv("IDENTITY_API_KEY"),
		IdentityAPISecret: mustEnv("IDENTITY_API_SECRET"),
		SendGridAPIKey:    mustEnv("SENDGRID_API_KEY"),
		TokenTTL:          DeletionTokenTTL,
	}

	loadStaticFlags(cfg)

	if cfg.LDFlag_ShortTokenTTL {
		cfg.TokenTTL = TestShortTokenTTL
	}

	return cfg
}

// loadStaticFlags fetches the static flags once from LaunchDarkly. With
// no LD_SDK_KEY the defaults stand (sandbox off, production TTL).
func loadStaticFlags(cfg *Config) {
	ldSDKKey := os.Getenv("LD_SDK_KEY")
	if ldSDKKey == "" {
		utils.Logger.Info("LD_SDK_KEY not set; using default static flags")
		return
	}

	ldClient, err := ld.MakeClient(ldSDKKey, LDConnectionTimeout)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
	}
	defer ldClient.Close()
	if !ldClient.Initialized() {
		utils.Logger.Fatal("LaunchDarkly client failed to initialize")
	}

	context := ldcontext.NewWithKind(LDContextKind, AppName)

	sandboxFlag, err := ldClient.BoolVariation("sendgrid_sandbox_mode", context, false)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving sendgrid_sandbox_mode flag")
	}
	utils.Logger.Debugf("sendgrid_sandbox_mode flag: %t", sandboxFlag)

	shortTTLFlag, err := ldClient.BoolVariation("short_token_ttl", context, false)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving short_token_ttl flag")
	}
	utils.Logger.Debugf("short_token_ttl flag: %t", shortTTLFlag)

	cfg.LDFlag_SendgridSandboxMode = sandboxFlag
	cfg.LDFlag_ShortTokenTTL = shortTTLFlag
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		utils.Logger.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
