// Package qr renders attendance codes as encrypted QR codes that organizers
// display at the venue and attendees scan to claim their credential.
package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/skip2/go-qrcode"
)

var ErrInvalidPass = errors.New("invalid attendance pass")

// Pass is the payload sealed inside an attendance QR code.
type Pass struct {
	Event          string    `json:"event"`
	AttendanceCode [32]byte  `json:"attendance_code"`
	IssuedAt       time.Time `json:"issued_at"`
}

type QRGenerator struct {
	secret []byte
}

func NewQRGenerator(secret string) *QRGenerator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &QRGenerator{secret: hashed[:]}
}

// GenerateEncryptedQR returns the PNG and the sealed text it encodes.
func (q *QRGenerator) GenerateEncryptedQR(pass Pass, size int) ([]byte, string, error) {
	sealed, err := q.Seal(pass)
	if err != nil {
		return nil, "", err
	}
	png, err := qrcode.Encode(sealed, qrcode.Medium, size)
	if err != nil {
		return nil, "", err
	}
	return png, sealed, nil
}

// Seal encrypts pass into URL-safe text.
func (q *QRGenerator) Seal(pass Pass) (string, error) {
	data, err := json.Marshal(pass)
	if err != nil {
		return "", err
	}
	return encryptAES(data, q.secret)
}

// Open decrypts text produced by Seal. Tampered or foreign text fails with ErrInvalidPass.
func (q *QRGenerator) Open(sealed string) (*Pass, error) {
	data, err := decryptAES(sealed, q.secret)
	if err != nil {
		return nil, ErrInvalidPass
	}
	var pass Pass
	if err := json.Unmarshal(data, &pass); err != nil {
		return nil, ErrInvalidPass
	}
	return &pass, nil
}

func encryptAES(data []byte, key []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, data, nil)
	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

func decryptAES(text string, key []byte) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(text)
	if err != nil {
		return nil, err
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(raw) < gcm.NonceSize() {
		return nil, ErrInvalidPass
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
