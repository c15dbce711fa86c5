package encryption

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"folderwatch/internal/watch"
)

// testSealPrefix marks data sealed by TestEncryptor. It is plain text so
// sealed snapshots stay readable in test failures.
const testSealPrefix = "FOLDERWATCH-TEST-SEALED\n"

// TestEncryptor is a deterministic, keyless Encryptor for tests. Sealing
// prepends testSealPrefix; opening strips it.
type TestEncryptor struct {
	setupCalled bool
}

var _ watch.Encryptor = (*TestEncryptor)(nil)

func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(string) error {
	e.setupCalled = true
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := io.WriteString(w, testSealPrefix); err != nil {
		return fmt.Errorf("writing test prefix: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(string) (watch.DecryptionContext, error) {
	return testDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return true
}

type testDecryptionContext struct{}

func (testDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	br := bufio.NewReader(r)
	prefix := make([]byte, len(testSealPrefix))
	if _, err := io.ReadFull(br, prefix); err != nil || string(prefix) != testSealPrefix {
		return fmt.Errorf("invalid test seal prefix")
	}
	if _, err := io.Copy(w, br); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func isTestSealed(data string) bool {
	return strings.HasPrefix(data, testSealPrefix)
}
