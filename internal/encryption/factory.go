package encryption

import (
	"fmt"

	"folderwatch/internal/config"
	"folderwatch/internal/watch"
)

// DefaultPassphraseEnv holds the private key passphrase when passphrase_env is unset.
const DefaultPassphraseEnv = "FOLDERWATCH_PASSPHRASE"

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
// Type "none" returns a nil Encryptor.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (watch.Encryptor, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "age":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}

// WrapStoreFromConfig returns inner sealed with the configured encryptor, or
// inner itself when encryption is disabled.
func WrapStoreFromConfig(inner watch.StateStore, cfg config.EncryptionConfig, logger watch.Logger) (watch.StateStore, error) {
	enc, err := NewEncryptorFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return inner, nil
	}
	return NewStore(inner, enc, EnvPassphrase(cfg.PassphraseEnv), logger), nil
}

// EnvPassphrase reads the passphrase from the named environment variable.
func EnvPassphrase(name string) PassphraseFunc {
	return func() (string, error) {
		if name == "" {
			name = DefaultPassphraseEnv
		}
		pass := config.Env(name, "")
		if pass == "" {
			return "", fmt.Errorf("%s is not set", name)
		}
		return pass, nil
	}
}
