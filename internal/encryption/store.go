package encryption

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"folderwatch/internal/watch"
)

// PassphraseFunc supplies the private key passphrase on first decrypt.
type PassphraseFunc func() (string, error)

// Store wraps a StateStore so snapshots are sealed before they are written.
// Reads of unsealed data pass through unchanged, so enabling encryption on an
// existing deployment picks up the plaintext snapshot and seals it on the next
// write. The private key is only unlocked when sealed data is actually read.
type Store struct {
	inner      watch.StateStore
	enc        watch.Encryptor
	passphrase PassphraseFunc
	logger     watch.Logger

	mu  sync.Mutex
	dec watch.DecryptionContext
}

var _ watch.StateStore = (*Store)(nil)

// NewStore wraps inner. passphrase is called when sealed data is first
// read; the unlocked key is then reused.
func NewStore(inner watch.StateStore, enc watch.Encryptor, passphrase PassphraseFunc, logger watch.Logger) *Store {
	return &Store{inner: inner, enc: enc, passphrase: passphrase, logger: logger}
}

// Get returns the decrypted snapshot and the inner store's revision.
// Unsealed data is returned as-is.
func (s *Store) Get(ctx context.Context) (string, string, error) {
	data, rev, err := s.inner.Get(ctx)
	if err != nil {
		return "", "", err
	}
	if !IsSealed(data) {
		if data != "" {
			s.logger.Warn("stored state is not encrypted; it will be sealed on the next write")
		}
		return data, rev, nil
	}

	dec, err := s.unlock()
	if err != nil {
		return "", "", err
	}

	var plain bytes.Buffer
	if err := dec.Decrypt(strings.NewReader(data), &plain); err != nil {
		return "", "", fmt.Errorf("decrypting stored state: %w", err)
	}
	return plain.String(), rev, nil
}

// Put seals data with the public key and writes it to the inner store.
func (s *Store) Put(ctx context.Context, data string, expectRevision string) (string, error) {
	var sealed bytes.Buffer
	if err := s.enc.Encrypt(strings.NewReader(data), &sealed); err != nil {
		return "", fmt.Errorf("encrypting state: %w", err)
	}
	return s.inner.Put(ctx, sealed.String(), expectRevision)
}

// ValidateSetup checks that keys exist and that the inner store is usable.
func (s *Store) ValidateSetup(ctx context.Context) error {
	if !s.enc.IsConfigured() {
		return fmt.Errorf("encryption keys not configured (run 'folderwatch keys init')")
	}
	return s.inner.ValidateSetup(ctx)
}

func (s *Store) unlock() (watch.DecryptionContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dec != nil {
		return s.dec, nil
	}
	if s.passphrase == nil {
		return nil, fmt.Errorf("stored state is encrypted but no passphrase source is configured")
	}
	pass, err := s.passphrase()
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	dec, err := s.enc.Unlock(pass)
	if err != nil {
		return nil, fmt.Errorf("unlocking private key: %w", err)
	}
	s.dec = dec
	return dec, nil
}

// IsSealed reports whether data was produced by one of this package's encryptors.
func IsSealed(data string) bool {
	return isAgeArmored(data) || isTestSealed(data)
}
