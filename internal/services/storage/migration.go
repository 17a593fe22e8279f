package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"filippo.io/age"
)

// MinPassphraseLength is the shortest passphrase EnableEncryption accepts
const MinPassphraseLength = 8

var ErrPassphraseTooShort = fmt.Errorf("passphrase must be at least %d characters", MinPassphraseLength)

// EnableEncryption encrypts every stored document with the given passphrase
func (b *FileBackend) EnableEncryption(passphrase string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.encrypted {
		return errors.New("encryption is already enabled")
	}
	if len(passphrase) < MinPassphraseLength {
		return ErrPassphraseTooShort
	}

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("create recipient: %w", err)
	}
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return fmt.Errorf("create identity: %w", err)
	}

	verifyPath := filepath.Join(b.baseDir, verifyFile)
	sealed, err := encryptData([]byte(verifyMagic), recipient)
	if err != nil {
		return fmt.Errorf("encrypt verification file: %w", err)
	}
	if err := os.WriteFile(verifyPath, sealed, 0o600); err != nil {
		return fmt.Errorf("write verification file: %w", err)
	}

	paths, err := b.documentPaths()
	if err != nil {
		os.Remove(verifyPath)
		return fmt.Errorf("scan documents: %w", err)
	}

	for i, path := range paths {
		if err := rewriteFile(path, func(data []byte) ([]byte, error) {
			if isAgeEncrypted(data) {
				return nil, nil
			}
			return encryptData(data, recipient)
		}); err != nil {
			b.rollbackEncryption(paths[:i], identity)
			os.Remove(verifyPath)
			return fmt.Errorf("encrypt %s: %w", filepath.Base(path), err)
		}
	}

	if err := os.WriteFile(filepath.Join(b.baseDir, markerFile), []byte("encrypted"), 0o600); err != nil {
		return fmt.Errorf("create marker file: %w", err)
	}

	b.encrypted = true
	b.identity = identity
	b.recipient = recipient
	return nil
}

// DisableEncryption decrypts every stored document; the current passphrase is required
func (b *FileBackend) DisableEncryption(passphrase string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.encrypted {
		return errors.New("encryption is not enabled")
	}

	identity, err := b.verifyPassphrase(passphrase)
	if err != nil {
		return err
	}

	paths, err := b.documentPaths()
	if err != nil {
		return fmt.Errorf("scan documents: %w", err)
	}

	for _, path := range paths {
		if err := rewriteFile(path, func(data []byte) ([]byte, error) {
			if !isAgeEncrypted(data) {
				return nil, nil
			}
			return decryptData(data, identity)
		}); err != nil {
			return fmt.Errorf("decrypt %s: %w", filepath.Base(path), err)
		}
	}

	os.Remove(filepath.Join(b.baseDir, markerFile))
	os.Remove(filepath.Join(b.baseDir, verifyFile))

	b.encrypted = false
	b.identity = nil
	b.recipient = nil
	return nil
}

// rewriteFile replaces a file's content with transform's output.
// A nil result leaves the file untouched.
func rewriteFile(path string, transform func([]byte) ([]byte, error)) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := transform(data)
	if err != nil || out == nil {
		return err
	}
	return atomicWrite(path, out, 0o600)
}

// rollbackEncryption decrypts files that were encrypted before a migration failed (best effort)
func (b *FileBackend) rollbackEncryption(paths []string, identity *age.ScryptIdentity) {
	for _, path := range paths {
		_ = rewriteFile(path, func(data []byte) ([]byte, error) {
			if !isAgeEncrypted(data) {
				return nil, nil
			}
			return decryptData(data, identity)
		})
	}
}
