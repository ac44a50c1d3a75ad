package vault

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/dmitrijs2005/credvault/internal/models"
)

// ExportFormatVersion is bumped whenever the Export layout changes.
const ExportFormatVersion = 1

// Export is a sealed snapshot of a vault: metadata plus every row, still
// encrypted. It holds no plaintext and no key material.
type Export struct {
	FormatVersion int                    `json:"format_version"`
	ExportedAt    time.Time              `json:"exported_at"`
	Metadata      models.VaultMetadata   `json:"metadata"`
	Credentials   []models.CredentialRow `json:"credentials"`
}

// Export writes a JSON snapshot of the sealed vault to w.
func (v *Vault) Export(ctx context.Context, key []byte, w io.Writer) (*Export, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	s, err := v.authorizeCRUD(key)
	if err != nil {
		return nil, err
	}
	s.wipe()

	meta, err := v.meta.Get(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := v.repos.Credentials(v.db).All(ctx)
	if err != nil {
		return nil, err
	}

	exp := &Export{
		FormatVersion: ExportFormatVersion,
		ExportedAt:    v.now().UTC(),
		Metadata:      *meta,
		Credentials:   rows,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(exp); err != nil {
		return nil, err
	}
	v.log.Info(ctx, "vault exported", "records", len(rows))
	return exp, nil
}
