package session

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// CredentialStore is the single durable key holding the raw bearer token.
// Load returns "" with a nil error when nothing was saved.
type CredentialStore interface {
	Load() (string, error)
	Save(raw string) error
	Remove() error
}

const encryptedPrefix = "enc:v1:"

var errEncryptedWithoutKey = errors.New("credential file is encrypted but no key is configured")

type FileCredentialStore struct {
	path string
	aead cipher.AEAD
	mu   sync.Mutex
}

// NewFileCredentialStore keeps the token in the file at path. A non-empty
// secret encrypts the file contents with XChaCha20-Poly1305.
func NewFileCredentialStore(path string, secret string) (*FileCredentialStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("credential file path is required")
	}

	store := &FileCredentialStore{path: path}
	if secret == "" {
		return store, nil
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte("admin-console credential file")), key); err != nil {
		return nil, fmt.Errorf("derive credential key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init credential cipher: %w", err)
	}
	store.aead = aead

	return store, nil
}

func (s *FileCredentialStore) Path() string {
	return s.path
}

func (s *FileCredentialStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	content := strings.TrimSpace(string(data))
	if !strings.HasPrefix(content, encryptedPrefix) {
		return content, nil
	}
	if s.aead == nil {
		return "", errEncryptedWithoutKey
	}

	sealed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(content, encryptedPrefix))
	if err != nil || len(sealed) < s.aead.NonceSize() {
		return "", fmt.Errorf("decode credential file: invalid payload")
	}

	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt credential file: %w", err)
	}

	return string(plain), nil
}

func (s *FileCredentialStore) Save(raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	content := raw
	if s.aead != nil {
		nonce := make([]byte, s.aead.NonceSize())
		if _, err := rand.Read(nonce); err != nil {
			return fmt.Errorf("generate nonce: %w", err)
		}
		sealed := s.aead.Seal(nonce, nonce, []byte(raw), nil)
		content = encryptedPrefix + base64.StdEncoding.EncodeToString(sealed)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileCredentialStore) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MemoryCredentialStore keeps the token for the lifetime of the process only.
type MemoryCredentialStore struct {
	mu  sync.Mutex
	raw string
}

func NewMemoryCredentialStore(initial string) *MemoryCredentialStore {
	return &MemoryCredentialStore{raw: initial}
}

func (m *MemoryCredentialStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.raw, nil
}

func (m *MemoryCredentialStore) Save(raw string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = raw
	return nil
}

func (m *MemoryCredentialStore) Remove() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = ""
	return nil
}
