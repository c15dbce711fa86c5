package watch

import "io"

// Encryptor protects the persisted snapshot at rest. Sealing needs only the
// public key so scheduled runs can write state unattended; opening needs the
// passphrase-protected private key.
type Encryptor interface {
	// Setup generates a key pair and protects the private half with passphrase.
	// Called by `folderwatch keys init`.
	Setup(passphrase string) error

	// Encrypt writes the ciphertext of r to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock opens the private key. A wrong passphrase is an error.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key for the lifetime of one run.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
