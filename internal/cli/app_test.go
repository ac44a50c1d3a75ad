package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/config"
	"github.com/dmitrijs2005/credvault/internal/logging"
	"github.com/dmitrijs2005/credvault/internal/repositories/repomanager"
	"github.com/dmitrijs2005/credvault/internal/testutil"
	"github.com/dmitrijs2005/credvault/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readerFromLines(lines ...string) *bufio.Reader {
	if len(lines) == 0 || lines[len(lines)-1] != "" {
		lines = append(lines, "")
	}
	return bufio.NewReader(strings.NewReader(strings.Join(lines, "\n")))
}

// stubPasswords makes getPassword hand out pw in order.
func stubPasswords(t *testing.T, pw ...string) {
	t.Helper()
	orig := getPassword
	t.Cleanup(func() { getPassword = orig })
	getPassword = func(w io.Writer, prompt string) ([]byte, error) {
		if len(pw) == 0 {
			return nil, errors.New("no more passwords")
		}
		p := pw[0]
		pw = pw[1:]
		return []byte(p), nil
	}
}

type fakeUploader struct {
	vaultID string
	body    []byte
	err     error
}

func (f *fakeUploader) Upload(ctx context.Context, vaultID string, body []byte) (string, error) {
	f.vaultID = vaultID
	f.body = append([]byte(nil), body...)
	if f.err != nil {
		return "", f.err
	}
	return "vaults/" + vaultID + "/backup.json", nil
}

type testApp struct {
	*App
	out *bytes.Buffer
	up  *fakeUploader
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.KDFMemoryKiB = 8
	cfg.KDFThreads = 1

	db := testutil.NewSQLiteDB(t)
	v := vault.New(db, repomanager.NewSQLiteRepositoryManager())
	require.NoError(t, v.Open(context.Background()))

	out := &bytes.Buffer{}
	up := &fakeUploader{}
	app, err := NewApp(cfg, v, up, logging.Nop(), strings.NewReader(""), out)
	require.NoError(t, err)
	return &testApp{App: app, out: out, up: up}
}

func (ta *testApp) input(lines ...string) {
	ta.reader = readerFromLines(lines...)
}

func initialized(t *testing.T) *testApp {
	t.Helper()
	ta := newTestApp(t)
	stubPasswords(t, "pass-one", "pass-one")
	require.NoError(t, ta.Init(context.Background(), nil))
	require.True(t, ta.isUnlocked())
	return ta
}

func TestNewApp_BadSuite(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.CipherSuite = "rot13"
	_, err := NewApp(cfg, nil, nil, logging.Nop(), strings.NewReader(""), io.Discard)
	require.Error(t, err)
}

func TestInit_PassphraseMismatch(t *testing.T) {
	ta := newTestApp(t)
	stubPasswords(t, "a", "b")
	require.ErrorIs(t, ta.Init(context.Background(), nil), errPassphraseMismatch)
	assert.False(t, ta.isUnlocked())
	assert.Equal(t, vault.StateUninitialized, ta.vault.State())
}

func TestRecordLifecycle(t *testing.T) {
	ctx := context.Background()
	ta := initialized(t)

	ta.input("github", "alice", "")
	stubPasswords(t, "hunter2")
	require.NoError(t, ta.Add(ctx, nil))
	assert.Contains(t, ta.out.String(), "Added record 1")

	ta.out.Reset()
	require.NoError(t, ta.Show(ctx, []string{"1"}))
	s := ta.out.String()
	assert.Contains(t, s, "Application: github")
	assert.Contains(t, s, "User:        alice")
	assert.Contains(t, s, "Password:    hunter2")
	assert.Contains(t, s, "Notes:       (none)")

	// clear application, keep user, new password, add notes
	ta.input("-", "", "recovery codes in safe")
	stubPasswords(t, "hunter3")
	require.NoError(t, ta.Edit(ctx, []string{"1"}))

	c, err := ta.vault.Read(ctx, ta.key, 1)
	require.NoError(t, err)
	assert.Nil(t, c.Application)
	assert.Equal(t, "alice", c.User)
	assert.Equal(t, "hunter3", c.Password)
	require.NotNil(t, c.Obs)
	assert.Equal(t, "recovery codes in safe", *c.Obs)

	ta.input("", "", "")
	stubPasswords(t, "")
	ta.out.Reset()
	require.NoError(t, ta.Edit(ctx, []string{"1"}))
	assert.Contains(t, ta.out.String(), "Nothing to change")

	ta.out.Reset()
	require.NoError(t, ta.List(ctx, nil))
	assert.Equal(t, "1\n", ta.out.String())

	ta.input("1")
	require.NoError(t, ta.Delete(ctx, nil))
	require.ErrorIs(t, ta.Delete(ctx, []string{"1"}), common.ErrNotFound)

	ta.out.Reset()
	require.NoError(t, ta.List(ctx, nil))
	assert.Equal(t, "No records\n", ta.out.String())

	require.ErrorIs(t, ta.Show(ctx, []string{"abc"}), common.ErrInvalidArgument)
}

func TestLockAndUnlock(t *testing.T) {
	ctx := context.Background()
	ta := initialized(t)

	require.NoError(t, ta.Lock(ctx, nil))
	assert.False(t, ta.isUnlocked())
	assert.Nil(t, ta.key)
	require.ErrorIs(t, ta.List(ctx, nil), common.ErrLocked)

	stubPasswords(t, "wrong", "pass-one")
	require.ErrorIs(t, ta.Unlock(ctx, nil), common.ErrAuthentication)
	assert.False(t, ta.isUnlocked())

	require.NoError(t, ta.Unlock(ctx, nil))
	assert.True(t, ta.isUnlocked())
}

func TestRotate(t *testing.T) {
	ctx := context.Background()
	ta := initialized(t)

	ta.input("", "bob", "")
	stubPasswords(t, "pw")
	require.NoError(t, ta.Add(ctx, nil))

	stubPasswords(t, "pass-two", "pass-two")
	require.NoError(t, ta.Rotate(ctx, nil))
	assert.Contains(t, ta.out.String(), "Resealed 1/1")

	require.NoError(t, ta.Lock(ctx, nil))
	stubPasswords(t, "pass-one", "pass-two")
	require.ErrorIs(t, ta.Unlock(ctx, nil), common.ErrAuthentication)
	require.NoError(t, ta.Unlock(ctx, nil))

	c, err := ta.vault.Read(ctx, ta.key, 1)
	require.NoError(t, err)
	assert.Equal(t, "bob", c.User)

	stubPasswords(t, "pass-two")
	require.ErrorIs(t, ta.Rotate(ctx, []string{"rollback"}), common.ErrNoRotation)
}

func TestExportAndBackup(t *testing.T) {
	ctx := context.Background()
	ta := initialized(t)

	ta.input("mail", "carol", "")
	stubPasswords(t, "topsecret")
	require.NoError(t, ta.Add(ctx, nil))

	path := filepath.Join(t.TempDir(), "out", "vault.json")
	require.NoError(t, ta.Export(ctx, []string{path}))

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "topsecret")
	var exp vault.Export
	require.NoError(t, json.Unmarshal(b, &exp))
	assert.Len(t, exp.Credentials, 1)

	require.NoError(t, ta.Backup(ctx, nil))
	assert.Equal(t, exp.Metadata.VaultID.String(), ta.up.vaultID)
	assert.NotContains(t, string(ta.up.body), "topsecret")
	assert.Contains(t, ta.out.String(), "Backup stored as vaults/")

	ta.up.err = errors.New("bucket unreachable")
	require.EqualError(t, ta.Backup(ctx, nil), "bucket unreachable")
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	ta := newTestApp(t)

	require.NoError(t, ta.Status(ctx, nil))
	assert.Equal(t, "State:         uninitialized\n", ta.out.String())

	stubPasswords(t, "p", "p")
	require.NoError(t, ta.Init(ctx, nil))
	ta.out.Reset()
	require.NoError(t, ta.Status(ctx, nil))
	s := ta.out.String()
	assert.Contains(t, s, "State:         unlocked")
	assert.Contains(t, s, "Cipher suite:  aes-256-gcm")
	assert.Contains(t, s, "Key epoch:     0")
}

func TestRun_ScriptedSession(t *testing.T) {
	ta := newTestApp(t)
	stubPasswords(t, "p", "p", "pw")
	ta.input("init", "add", "site", "dave", "", "list", "exit")

	ta.Run(context.Background())

	s := ta.out.String()
	assert.Contains(t, s, "No vault found")
	assert.Contains(t, s, "Added record 1")
	assert.Contains(t, s, "Bye!")
	assert.Nil(t, ta.key)
}
