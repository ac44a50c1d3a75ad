package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/config"
	"github.com/dmitrijs2005/credvault/internal/cryptox"
	"github.com/dmitrijs2005/credvault/internal/logging"
	"github.com/dmitrijs2005/credvault/internal/vault"
)

// Uploader stores an exported vault under a fresh object key.
type Uploader interface {
	Upload(ctx context.Context, vaultID string, body []byte) (string, error)
}

// getSimpleText, getOptionalText and getPassword are indirections used to
// facilitate testing.
var (
	getSimpleText   = GetSimpleText
	getOptionalText = GetOptionalText
	getPassword     = GetPassword
)

type App struct {
	cfg      *config.Config
	vault    *vault.Vault
	uploader Uploader
	log      logging.Logger
	reader   *bufio.Reader
	out      io.Writer

	kdf   cryptox.KDFParams
	suite cryptox.Suite
	key   []byte
}

// NewApp builds an App over an opened vault session. Input is read from in
// and everything meant for the user goes to out.
func NewApp(cfg *config.Config, v *vault.Vault, up Uploader, log logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	suite, err := cryptox.ParseSuite(cfg.CipherSuite)
	if err != nil {
		return nil, err
	}
	return &App{
		cfg:      cfg,
		vault:    v,
		uploader: up,
		log:      log,
		reader:   bufio.NewReader(in),
		out:      out,
		kdf: cryptox.KDFParams{
			Time:    cfg.KDFTime,
			Memory:  cfg.KDFMemoryKiB,
			Threads: cfg.KDFThreads,
		},
		suite: suite,
	}, nil
}

// Run blocks in the REPL until the user exits or input ends. The key is
// wiped on the way out.
func (a *App) Run(ctx context.Context) {
	defer a.forgetKey()

	fmt.Fprintln(a.out, "Welcome to credvault (type 'help' for commands)")
	if a.vault.State() == vault.StateUninitialized {
		fmt.Fprintln(a.out, "No vault found, use 'init' to create one")
	}
	runREPL(ctx, a, a.status, a.reader, a.out)
}

func (a *App) isUnlocked() bool {
	return a.key != nil && a.vault.State() == vault.StateUnlocked
}

func (a *App) status() string {
	return a.vault.State().String()
}

func (a *App) setKey(key []byte) {
	a.forgetKey()
	a.key = key
}

func (a *App) forgetKey() {
	common.WipeByteArray(a.key)
	a.key = nil
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
