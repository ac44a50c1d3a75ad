package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/credvault/internal/flagx"
	"github.com/dmitrijs2005/credvault/internal/timex"
)

type jsonKDF struct {
	Time      *uint32 `json:"time"`
	MemoryKiB *uint32 `json:"memory_kib"`
	Threads   *uint8  `json:"threads"`
}

type jsonS3 struct {
	Bucket    *string `json:"bucket"`
	Region    *string `json:"region"`
	Endpoint  *string `json:"endpoint"`
	AccessKey *string `json:"access_key"`
	SecretKey *string `json:"secret_key"`
}

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from "zero" so a partial file only overrides
// what it names.
type JsonConfig struct {
	VaultPath           *string         `json:"vault_path"`
	Backend             *string         `json:"backend"`
	DatabaseDSN         *string         `json:"database_dsn"`
	CipherSuite         *string         `json:"cipher_suite"`
	AssociatedData      *string         `json:"associated_data"`
	LogFormat           *string         `json:"log_format"`
	LogLevel            *string         `json:"log_level"`
	KDF                 *jsonKDF        `json:"kdf"`
	UnlockRatePerSecond *float64        `json:"unlock_rate_per_second"`
	UnlockBurst         *int            `json:"unlock_burst"`
	S3                  *jsonS3         `json:"s3"`
	BackupTimeout       *timex.Duration `json:"backup_timeout"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// parseJson overlays Config with values loaded from a JSON file whose path
// comes from -c or -config. Without either flag it does nothing.
//
// Panics on read or unmarshal errors (caller should recover if desired).
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	set(&cfg.VaultPath, jc.VaultPath)
	set(&cfg.Backend, jc.Backend)
	set(&cfg.DatabaseDSN, jc.DatabaseDSN)
	set(&cfg.CipherSuite, jc.CipherSuite)
	set(&cfg.AssociatedData, jc.AssociatedData)
	set(&cfg.LogFormat, jc.LogFormat)
	set(&cfg.LogLevel, jc.LogLevel)
	set(&cfg.UnlockRatePerSecond, jc.UnlockRatePerSecond)
	set(&cfg.UnlockBurst, jc.UnlockBurst)
	if jc.KDF != nil {
		set(&cfg.KDFTime, jc.KDF.Time)
		set(&cfg.KDFMemoryKiB, jc.KDF.MemoryKiB)
		set(&cfg.KDFThreads, jc.KDF.Threads)
	}
	if jc.S3 != nil {
		set(&cfg.S3.Bucket, jc.S3.Bucket)
		set(&cfg.S3.Region, jc.S3.Region)
		set(&cfg.S3.Endpoint, jc.S3.Endpoint)
		set(&cfg.S3.AccessKey, jc.S3.AccessKey)
		set(&cfg.S3.SecretKey, jc.S3.SecretKey)
	}
	if jc.BackupTimeout != nil {
		cfg.BackupTimeout = jc.BackupTimeout.Duration
	}
}
