package config

import (
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// parseEnv overlays Config with environment variables. A .env file in the
// working directory is loaded first if present; variables already set in the
// process environment win over it. Unset variables leave fields untouched.
//
// Panics on malformed values, like parseJson and parseFlags.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	if err := env.Parse(cfg); err != nil {
		panic(err)
	}
}
