package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// EnvelopeVersion is the current envelope wire-format version byte.
const EnvelopeVersion byte = 0x01

// MasterKeySize is the required symmetric key length (AES-256).
const MasterKeySize = 32

var (
	// ErrUnsupportedVersion reports an envelope whose version byte is not
	// recognised. Newer format versions must be handled explicitly, never
	// guessed at.
	ErrUnsupportedVersion = errors.New("cryptox: unsupported envelope version")

	// ErrAuthenticationFailed reports a failed GCM tag check: the envelope
	// was tampered with or encrypted under a different key. Callers must
	// treat this as an integrity failure, never as a cue to fall back to
	// plaintext.
	ErrAuthenticationFailed = errors.New("cryptox: envelope authentication failed")
)

// Envelope performs authenticated encryption of sensitive fields using a
// single AES-256-GCM master key. The key is loaded once at startup and the
// Envelope is shared read-only between every component that needs it.
//
// Wire format: base64( [1-byte version][12-byte nonce][ciphertext||tag] ).
// The encoded value is safe to persist or transmit as opaque text.
type Envelope struct {
	aead cipher.AEAD
}

// NewEnvelope builds an Envelope from a raw 32-byte key.
func NewEnvelope(key []byte) (*Envelope, error) {
	if len(key) != MasterKeySize {
		return nil, fmt.Errorf("cryptox: master key must be %d bytes, got %d", MasterKeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptox: create GCM: %w", err)
	}

	return &Envelope{aead: aead}, nil
}

// NewEnvelopeFromBase64 decodes a base64-encoded 256-bit key and builds an
// Envelope from it. This is the form the key arrives in from configuration.
func NewEnvelopeFromBase64(b64Key string) (*Envelope, error) {
	key, err := base64.StdEncoding.DecodeString(b64Key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: decode master key: %w", err)
	}
	return NewEnvelope(key)
}

// Encrypt seals plaintext into a versioned envelope. A fresh random nonce is
// drawn per call; a reused nonce under the same GCM key breaks both
// confidentiality and integrity.
func (e *Envelope) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("cryptox: generate nonce: %w", err)
	}

	packed := make([]byte, 0, 1+len(nonce)+len(plaintext)+e.aead.Overhead())
	packed = append(packed, EnvelopeVersion)
	packed = append(packed, nonce...)
	packed = e.aead.Seal(packed, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(packed), nil
}

// Decrypt opens a versioned envelope produced by Encrypt. The version byte is
// checked before anything else so future formats fail loudly rather than as a
// tag mismatch.
func (e *Envelope) Decrypt(envelope string) (string, error) {
	packed, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return "", fmt.Errorf("cryptox: decode envelope: %w", err)
	}
	if len(packed) < 1+e.aead.NonceSize()+e.aead.Overhead() {
		return "", ErrAuthenticationFailed
	}
	if packed[0] != EnvelopeVersion {
		return "", fmt.Errorf("%w: %#x", ErrUnsupportedVersion, packed[0])
	}

	nonce := packed[1 : 1+e.aead.NonceSize()]
	ciphertext := packed[1+e.aead.NonceSize():]

	plain, err := e.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrAuthenticationFailed
	}
	return string(plain), nil
}

// EncryptOptional encrypts an optional field. A nil plaintext passes through
// as nil without touching the cipher, preserving absence.
func (e *Envelope) EncryptOptional(plaintext *string) (*string, error) {
	if plaintext == nil {
		return nil, nil
	}
	out, err := e.Encrypt(*plaintext)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DecryptOptional is the inverse of EncryptOptional.
func (e *Envelope) DecryptOptional(envelope *string) (*string, error) {
	if envelope == nil {
		return nil, nil
	}
	out, err := e.Decrypt(*envelope)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateMasterKey returns a fresh random 256-bit key, base64-encoded.
// Intended for provisioning tooling and dev mode, not the runtime path.
func GenerateMasterKey() (string, error) {
	key := make([]byte, MasterKeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("cryptox: generate master key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
