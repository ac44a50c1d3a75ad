package common

// Name of the application, used in KDF labels and log fields.
const AppName = "credvault"

// Sizes of persisted random material.
const (
	SaltSize    = 32
	VaultIDSize = 16
)
