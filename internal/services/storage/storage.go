package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"filippo.io/age"
	"github.com/google/uuid"
)

const (
	// ageHeader is the prefix of Age-encrypted files
	ageHeader = "age-encryption.org"

	// markerFile indicates encryption is enabled
	markerFile = ".encrypted"

	// verifyFile is used to validate the passphrase
	verifyFile = ".encryption-verify"

	// verifyMagic is the expected content in the verify file
	verifyMagic = `{"magic":"fintrack-encryption-verify","version":1}`

	// docExt is appended to a key to form its file name
	docExt = ".json"
)

var (
	ErrLocked          = errors.New("storage is encrypted and locked")
	ErrWrongPassphrase = errors.New("incorrect passphrase")
)

// FileBackend stores one JSON file per key in a directory, optionally encrypted with age
type FileBackend struct {
	baseDir   string
	encrypted bool
	identity  *age.ScryptIdentity
	recipient *age.ScryptRecipient
	mu        sync.RWMutex
}

// NewFileBackend opens the document directory, creating it if needed
func NewFileBackend(baseDir string) (*FileBackend, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	b := &FileBackend{baseDir: baseDir}

	if _, err := os.Stat(filepath.Join(baseDir, markerFile)); err == nil {
		b.encrypted = true
	}

	return b, nil
}

// BaseDir returns the document directory
func (b *FileBackend) BaseDir() string {
	return b.baseDir
}

// IsEncrypted returns true if the directory is encrypted at rest
func (b *FileBackend) IsEncrypted() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.encrypted
}

// IsUnlocked returns true if documents can be read and written
func (b *FileBackend) IsUnlocked() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return !b.encrypted || b.identity != nil
}

// Unlock verifies the passphrase and keeps the key in memory
func (b *FileBackend) Unlock(passphrase string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.encrypted {
		return nil
	}

	identity, err := b.verifyPassphrase(passphrase)
	if err != nil {
		return err
	}

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("create recipient: %w", err)
	}

	b.identity = identity
	b.recipient = recipient
	return nil
}

// Lock clears the encryption key from memory
func (b *FileBackend) Lock() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.identity = nil
	b.recipient = nil
}

// verifyPassphrase decrypts the verification file; the caller holds mu
func (b *FileBackend) verifyPassphrase(passphrase string) (*age.ScryptIdentity, error) {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}

	encrypted, err := os.ReadFile(filepath.Join(b.baseDir, verifyFile))
	if err != nil {
		return nil, fmt.Errorf("read verification file: %w", err)
	}

	decrypted, err := decryptData(encrypted, identity)
	if err != nil || string(decrypted) != verifyMagic {
		return nil, ErrWrongPassphrase
	}
	return identity, nil
}

// Get reads and, when needed, decrypts the document stored under key
func (b *FileBackend) Get(key string) ([]byte, error) {
	path, err := b.pathFor(key)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if isAgeEncrypted(data) {
		if b.identity == nil {
			return nil, ErrLocked
		}
		return decryptData(data, b.identity)
	}

	return data, nil
}

// Put writes the document under key, encrypting it when encryption is enabled
func (b *FileBackend) Put(key string, data []byte) error {
	path, err := b.pathFor(key)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.encrypted {
		if b.recipient == nil {
			return ErrLocked
		}
		encrypted, err := encryptData(data, b.recipient)
		if err != nil {
			return fmt.Errorf("encrypt %s: %w", key, err)
		}
		data = encrypted
	}

	return atomicWrite(path, data, 0o600)
}

// Delete removes the document; a missing document is not an error
func (b *FileBackend) Delete(key string) error {
	path, err := b.pathFor(key)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Keys lists every stored document key in sorted order
func (b *FileBackend) Keys() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	paths, err := b.documentPaths()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		keys = append(keys, strings.TrimSuffix(filepath.Base(p), docExt))
	}
	sort.Strings(keys)
	return keys, nil
}

// documentPaths returns the files holding documents, skipping marker and temp files
func (b *FileBackend) documentPaths() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(b.baseDir, "*"+docExt))
	if err != nil {
		return nil, err
	}
	paths := matches[:0]
	for _, p := range matches {
		if isControlFile(p) {
			continue
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func (b *FileBackend) pathFor(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid document key %q", key)
	}
	return filepath.Join(b.baseDir, key+docExt), nil
}

// atomicWrite writes data to a uniquely named temp file and renames it into place
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmpPath := path + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// isControlFile reports whether path is an encryption marker or verification file
func isControlFile(path string) bool {
	base := filepath.Base(path)
	return base == markerFile || base == verifyFile
}

// isAgeEncrypted checks if data starts with the Age encryption header
func isAgeEncrypted(data []byte) bool {
	return len(data) > len(ageHeader) && string(data[:len(ageHeader)]) == ageHeader
}
