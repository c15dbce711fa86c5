package testutil

import (
	"folderwatch/internal/encryption"
	"folderwatch/internal/watch"
)

// NewTestEncryptor creates a keyless, deterministic encryptor for testing.
func NewTestEncryptor() watch.Encryptor {
	return encryption.NewTestEncryptor()
}
