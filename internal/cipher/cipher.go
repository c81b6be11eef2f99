// SPDX-License-Identifier: MPL-2.0

// Package cipher implements the password-based cipher used for encrypted
// passwords in the build engine's settings files.
//
// The key and IV are the SHA-256 digest of password||salt (16 bytes each),
// the payload is AES/CBC/PKCS#5 and the encoded form is
// base64(salt[8] | padLen[1] | ciphertext | random[padLen]), so the total is a
// multiple of the AES block size. Decorated values are wrapped in braces.
package cipher

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// MasterPasswordKey is the fixed password protecting the master password.
	MasterPasswordKey = "settings.security"

	saltSize  = 8
	chunkSize = 16
)

var (
	// ErrNotDecorated is returned when a value is not wrapped in braces.
	ErrNotDecorated = errors.New("value is not a decorated encrypted string")
	// ErrMalformed is returned for payloads that cannot be decrypted.
	ErrMalformed = errors.New("malformed encrypted payload")
)

// Cipher encrypts and decrypts passwords. The zero value uses crypto/rand.
type Cipher struct {
	// Rand is the source for salt and trailing noise.
	Rand io.Reader
}

func (c *Cipher) rand() io.Reader {
	if c.Rand == nil {
		return rand.Reader
	}
	return c.Rand
}

// Encrypt returns the base64 encoded ciphertext of clear.
func (c *Cipher) Encrypt(clear, password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(c.rand(), salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	block, iv, err := newBlock(password, salt)
	if err != nil {
		return "", err
	}

	padded := pkcs5Pad([]byte(clear))
	enc := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(enc, padded)

	padLen := chunkSize - ((saltSize + len(enc) + 1) % chunkSize)
	all := make([]byte, saltSize+1+len(enc)+padLen)
	copy(all, salt)
	all[saltSize] = byte(padLen)
	copy(all[saltSize+1:], enc)
	if _, err := io.ReadFull(c.rand(), all[saltSize+1+len(enc):]); err != nil {
		return "", fmt.Errorf("read padding: %w", err)
	}
	return base64.StdEncoding.EncodeToString(all), nil
}

// Decrypt reverses Encrypt.
func (c *Cipher) Decrypt(encoded, password string) (string, error) {
	all, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(all) < saltSize+1 {
		return "", fmt.Errorf("%w: payload too short", ErrMalformed)
	}
	salt := all[:saltSize]
	padLen := int(all[saltSize])
	end := len(all) - padLen
	if end < saltSize+1 {
		return "", fmt.Errorf("%w: invalid padding length", ErrMalformed)
	}
	enc := all[saltSize+1 : end]
	if len(enc) == 0 || len(enc)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext is not block aligned", ErrMalformed)
	}

	block, iv, err := newBlock(password, salt)
	if err != nil {
		return "", err
	}
	clear := make([]byte, len(enc))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(clear, enc)
	clear, err = pkcs5Unpad(clear)
	if err != nil {
		return "", err
	}
	return string(clear), nil
}

// EncryptAndDecorate encrypts clear and wraps the result in braces.
func (c *Cipher) EncryptAndDecorate(clear, password string) (string, error) {
	enc, err := c.Encrypt(clear, password)
	if err != nil {
		return "", err
	}
	return Decorate(enc), nil
}

// DecryptDecorated strips the braces and decrypts.
func (c *Cipher) DecryptDecorated(decorated, password string) (string, error) {
	enc, err := Undecorate(decorated)
	if err != nil {
		return "", err
	}
	return c.Decrypt(enc, password)
}

// Decorate wraps s in braces.
func Decorate(s string) string { return "{" + s + "}" }

// Undecorate returns the text between the first unescaped "{" and the
// following unescaped "}".
func Undecorate(s string) (string, error) {
	start := indexUnescaped(s, '{', 0)
	if start < 0 {
		return "", ErrNotDecorated
	}
	end := indexUnescaped(s, '}', start+1)
	if end < 0 || end == start+1 {
		return "", ErrNotDecorated
	}
	return s[start+1 : end], nil
}

// IsEncrypted reports whether s carries a decorated value.
func IsEncrypted(s string) bool {
	_, err := Undecorate(s)
	return err == nil
}

func indexUnescaped(s string, c byte, from int) int {
	for i := from; i < len(s); i++ {
		if s[i] == c && (i == 0 || s[i-1] != '\\') {
			return i
		}
	}
	return -1
}

func newBlock(password string, salt []byte) (cipher.Block, []byte, error) {
	h := sha256.New()
	h.Write([]byte(password))
	h.Write(salt)
	keyAndIV := h.Sum(nil)
	block, err := aes.NewCipher(keyAndIV[:16])
	if err != nil {
		return nil, nil, err
	}
	return block, keyAndIV[16:32], nil
}

func pkcs5Pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	return append(bytes.Clone(b), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs5Unpad(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", ErrMalformed)
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, fmt.Errorf("%w: bad padding (wrong password?)", ErrMalformed)
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, fmt.Errorf("%w: bad padding (wrong password?)", ErrMalformed)
		}
	}
	return b[:len(b)-n], nil
}
