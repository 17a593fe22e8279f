package storage

import (
	"errors"
	"fmt"
)

// Backend kinds accepted by OpenBackend
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// ErrEncryptionUnsupported is returned when encryption is requested on a backend other than file
var ErrEncryptionUnsupported = errors.New("encryption is only supported by the file backend")

// OpenBackend constructs the backend named by kind
func OpenBackend(kind, dataDir, sqlitePath string) (Backend, error) {
	switch kind {
	case BackendFile, "":
		return NewFileBackend(dataDir)
	case BackendSQLite:
		return NewSQLiteBackend(sqlitePath)
	case BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}

// Encryptor is implemented by backends that support encryption at rest
type Encryptor interface {
	IsEncrypted() bool
	IsUnlocked() bool
	Unlock(passphrase string) error
	Lock()
	EnableEncryption(passphrase string) error
	DisableEncryption(passphrase string) error
}

// AsEncryptor returns backend's encryption controls, or ErrEncryptionUnsupported
func AsEncryptor(backend Backend) (Encryptor, error) {
	enc, ok := backend.(Encryptor)
	if !ok {
		return nil, ErrEncryptionUnsupported
	}
	return enc, nil
}
