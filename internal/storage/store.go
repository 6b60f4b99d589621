package storage

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mikael-devkh/sistema/internal/model"
)

// ErrNotFound is returned when no record exists for an id
var ErrNotFound = errors.New("fsa record not found")

// FsaStore defines the document store operations used by the FSA lookup
type FsaStore interface {
	GetFsa(ctx context.Context, id string) (*model.FsaRecord, error)
	PutFsa(ctx context.Context, record *model.FsaRecord) error
}

// envelope is the stored form of a record. Exactly one field is set.
type envelope struct {
	Record *model.FsaRecord `json:"record,omitempty"`
	Sealed string           `json:"sealed,omitempty"`
}

// codec turns records into stored bytes, sealing them with AES-GCM when a key is set
type codec struct {
	encryptKey []byte // 32-byte key for AES-256, nil disables sealing
}

// ParseKey decodes a base64 AES-256 key. An empty string disables sealing.
func ParseKey(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode store key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("store key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

func (c codec) encode(record *model.FsaRecord) ([]byte, error) {
	if c.encryptKey == nil {
		return json.Marshal(envelope{Record: record})
	}

	plain, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	sealed, err := c.encrypt(plain)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt record: %w", err)
	}
	return json.Marshal(envelope{Sealed: sealed})
}

func (c codec) decode(data []byte) (*model.FsaRecord, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	if env.Record != nil {
		return env.Record, nil
	}
	if env.Sealed == "" {
		return nil, fmt.Errorf("empty record envelope")
	}
	if c.encryptKey == nil {
		return nil, fmt.Errorf("record is sealed but no store key is configured")
	}

	plain, err := c.decrypt(env.Sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt record: %w", err)
	}
	var record model.FsaRecord
	if err := json.Unmarshal(plain, &record); err != nil {
		return nil, fmt.Errorf("failed to decode sealed record: %w", err)
	}
	return &record, nil
}

// encrypt seals plaintext with AES-GCM and returns nonce||ciphertext in base64
func (c codec) encrypt(plaintext []byte) (string, error) {
	aesGCM, err := c.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := aesGCM.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (c codec) decrypt(encrypted string) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, err
	}

	aesGCM, err := c.gcm()
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aesGCM.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce := ciphertext[:aesGCM.NonceSize()]
	return aesGCM.Open(nil, nonce, ciphertext[aesGCM.NonceSize():], nil)
}

func (c codec) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.encryptKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
