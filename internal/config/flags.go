package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/credvault/internal/flagx"
)

var knownFlags = []string{"-vault", "-backend", "-d", "-suite", "-log", "-level"}

// parseFlags populates selected Config fields from command-line flags.
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with -c/-config.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.VaultPath, "vault", cfg.VaultPath, "path of the vault file")
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "storage backend (sqlite|postgres)")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.CipherSuite, "suite", cfg.CipherSuite, "cipher suite for new vaults")
	fs.StringVar(&cfg.LogFormat, "log", cfg.LogFormat, "log format (text|json|zap)")
	fs.StringVar(&cfg.LogLevel, "level", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
