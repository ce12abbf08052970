package vault

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	saltFile   = "vault.salt"
	saltLength = 16
	nonceSize  = 12

	// Argon2 parameters for deriving the vault key from the configured secret.
	keyTime    = 1
	keyMemory  = 64 * 1024
	keyThreads = 4
	keyLength  = 32
)

// FileVault implements Vault over a directory tree, encrypting each blob with
// AES-256-GCM. The key is derived once from the configured secret and a salt
// persisted alongside the data on first use.
type FileVault struct {
	dir  string
	aead cipher.AEAD
}

// NewFileVault opens (or initializes) the vault rooted at dir.
func NewFileVault(dir, secret string) (*FileVault, error) {
	if secret == "" {
		return nil, fmt.Errorf("vault secret must not be empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create vault directory: %w", err)
	}

	salt, err := loadOrCreateSalt(filepath.Join(dir, saltFile))
	if err != nil {
		return nil, err
	}

	key := argon2.IDKey([]byte(secret), salt, keyTime, keyMemory, keyThreads, keyLength)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init vault cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init vault cipher: %w", err)
	}

	return &FileVault{dir: dir, aead: aead}, nil
}

func loadOrCreateSalt(path string) ([]byte, error) {
	salt, err := os.ReadFile(path)
	if err == nil {
		if len(salt) != saltLength {
			return nil, fmt.Errorf("corrupt vault salt file %s", path)
		}
		return salt, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read vault salt: %w", err)
	}

	salt = make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate vault salt: %w", err)
	}
	if err := os.WriteFile(path, salt, 0o600); err != nil {
		return nil, fmt.Errorf("write vault salt: %w", err)
	}
	return salt, nil
}

// resolve maps a key to a path under the vault root, rejecting traversal.
func (v *FileVault) resolve(key string) (string, error) {
	clean := path.Clean(key)
	if clean == "." || strings.HasPrefix(clean, "..") || path.IsAbs(clean) {
		return "", fmt.Errorf("invalid vault key: %q", key)
	}
	return filepath.Join(v.dir, filepath.FromSlash(clean)), nil
}

func (v *FileVault) Load(ctx context.Context, key string, out any) error {
	p, err := v.resolve(key)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("read blob %s: %w", key, err)
	}
	if len(data) < nonceSize {
		return fmt.Errorf("corrupt blob %s", key)
	}
	plaintext, err := v.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return fmt.Errorf("decrypt blob %s: %w", key, err)
	}
	if err := json.Unmarshal(plaintext, out); err != nil {
		return fmt.Errorf("decode blob %s: %w", key, err)
	}
	return nil
}

func (v *FileVault) Save(ctx context.Context, key string, val any) error {
	p, err := v.resolve(key)
	if err != nil {
		return err
	}
	plaintext, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("encode blob %s: %w", key, err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("encrypt blob %s: %w", key, err)
	}
	ciphertext := v.aead.Seal(nonce, nonce, plaintext, nil)

	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	if err := os.WriteFile(p, ciphertext, 0o600); err != nil {
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	return nil
}

func (v *FileVault) Delete(ctx context.Context, key string) error {
	p, err := v.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}

func (v *FileVault) Rename(ctx context.Context, oldKey, newKey string) error {
	oldPath, err := v.resolve(oldKey)
	if err != nil {
		return err
	}
	newPath, err := v.resolve(newKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(newPath), 0o700); err != nil {
		return fmt.Errorf("rename blob %s: %w", oldKey, err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("rename blob %s -> %s: %w", oldKey, newKey, err)
	}
	return nil
}

func (v *FileVault) List(ctx context.Context, prefix string) ([]string, error) {
	p, err := v.resolve(prefix)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list blobs %s: %w", prefix, err)
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		keys = append(keys, path.Join(prefix, e.Name()))
	}
	return keys, nil
}
