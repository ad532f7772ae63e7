package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/dona/pkg/domain"
	"github.com/aretw0/dona/pkg/ports"
)

// encryptedPrefix marks a title stored as an AES-GCM envelope.
const encryptedPrefix = "enc:v1:"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.TaskRepository
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts task titles at rest using AES-GCM.
// IDs, timestamps and flags stay in the clear so backends can still index and sort.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, errors.New("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.TaskRepository) ports.TaskRepository {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}, nil
}

// ParseKey decodes a base64 encoded AES-256 key.
func ParseKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

func (m *encryptionMiddleware) Save(ctx context.Context, task domain.Task) error {
	ciphertext, err := encrypt([]byte(task.Title), m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt task: %w", err)
	}

	sealed := task
	sealed.Title = encryptedPrefix + base64.StdEncoding.EncodeToString(ciphertext)
	return m.next.Save(ctx, sealed)
}

func (m *encryptionMiddleware) Get(ctx context.Context, id domain.TaskID) (domain.Task, error) {
	task, err := m.next.Get(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	return m.open(task)
}

func (m *encryptionMiddleware) Delete(ctx context.Context, id domain.TaskID) error {
	return m.next.Delete(ctx, id)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]domain.Task, error) {
	tasks, err := m.next.List(ctx)
	if err != nil {
		return nil, err
	}
	for i, task := range tasks {
		if tasks[i], err = m.open(task); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

func (m *encryptionMiddleware) open(task domain.Task) (domain.Task, error) {
	encoded, ok := strings.CutPrefix(task.Title, encryptedPrefix)
	if !ok {
		// Fail secure: once encryption is configured every title must be sealed.
		return domain.Task{}, fmt.Errorf("task %s is missing encrypted data envelope", task.ID)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return domain.Task{}, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return domain.Task{}, fmt.Errorf("failed to decrypt task %s: %w", task.ID, err)
	}

	task.Title = string(plainText)
	return task, nil
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}
