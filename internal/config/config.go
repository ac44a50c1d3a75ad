package config

import (
	"time"
)

// S3Config locates the bucket that receives vault backups.
type S3Config struct {
	Bucket    string `env:"BUCKET"`
	Region    string `env:"REGION"`
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
}

// Enabled reports whether enough is configured to attempt an upload.
func (s S3Config) Enabled() bool {
	return s.Bucket != "" && s.Endpoint != ""
}

// Config holds runtime settings for the credvault CLI.
//
// Units: KDFMemoryKiB is in kibibytes, UnlockRatePerSecond is attempts per
// second with UnlockBurst attempts allowed back to back.
type Config struct {
	VaultPath      string `env:"CREDVAULT_PATH"`
	Backend        string `env:"CREDVAULT_BACKEND"`
	DatabaseDSN    string `env:"CREDVAULT_DATABASE_DSN"`
	CipherSuite    string `env:"CREDVAULT_CIPHER_SUITE"`
	AssociatedData string `env:"CREDVAULT_ASSOCIATED_DATA"`

	LogFormat string `env:"CREDVAULT_LOG_FORMAT"`
	LogLevel  string `env:"CREDVAULT_LOG_LEVEL"`

	KDFTime      uint32 `env:"CREDVAULT_KDF_TIME"`
	KDFMemoryKiB uint32 `env:"CREDVAULT_KDF_MEMORY_KIB"`
	KDFThreads   uint8  `env:"CREDVAULT_KDF_THREADS"`

	UnlockRatePerSecond float64 `env:"CREDVAULT_UNLOCK_RATE"`
	UnlockBurst         int     `env:"CREDVAULT_UNLOCK_BURST"`

	S3            S3Config      `envPrefix:"CREDVAULT_S3_"`
	BackupTimeout time.Duration `env:"CREDVAULT_BACKUP_TIMEOUT"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.VaultPath = "~/.credvault/vault.db"
	c.Backend = "sqlite"
	c.DatabaseDSN = ""
	c.CipherSuite = "aes-256-gcm"
	c.AssociatedData = ""
	c.LogFormat = "text"
	c.LogLevel = "info"
	c.KDFTime = 1
	c.KDFMemoryKiB = 64 * 1024
	c.KDFThreads = 4
	c.UnlockRatePerSecond = 0.5
	c.UnlockBurst = 3
	c.S3 = S3Config{Region: "us-east-1"}
	c.BackupTimeout = 30 * time.Second
}

// DSN returns the connection string for the configured backend. For SQLite
// an empty DatabaseDSN falls back to VaultPath.
func (c *Config) DSN() string {
	if c.DatabaseDSN != "" || c.Backend == "postgres" {
		return c.DatabaseDSN
	}
	return c.VaultPath
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags (if present).
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
