// Package cli provides the interactive credvault command-line client.
//
// App wires a vault session, the passphrase prompt and the backup uploader
// into a small REPL. Typical flow: init or unlock with a passphrase, then
// add, show, edit and delete records until lock or exit.
//
// The derived vault key lives in App only while the session is unlocked and
// is wiped on lock and exit. Decrypted values are printed, never logged.
package cli
