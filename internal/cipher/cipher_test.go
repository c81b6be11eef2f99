// SPDX-License-Identifier: MPL-2.0

package cipher

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []string{"", "a", "password", "exactly sixteen!", strings.Repeat("é", 40)}
	c := &Cipher{}
	for _, clear := range tests {
		enc, err := c.EncryptAndDecorate(clear, MasterPasswordKey)
		if err != nil {
			t.Fatalf("EncryptAndDecorate(%q) error: %v", clear, err)
		}
		if !IsEncrypted(enc) {
			t.Errorf("IsEncrypted(%q) = false", enc)
		}
		got, err := c.DecryptDecorated(enc, MasterPasswordKey)
		if err != nil {
			t.Fatalf("DecryptDecorated(%q) error: %v", enc, err)
		}
		if got != clear {
			t.Errorf("round trip = %q, want %q", got, clear)
		}
	}
}

func TestEncodedLayout(t *testing.T) {
	t.Parallel()

	c := &Cipher{Rand: bytes.NewReader(bytes.Repeat([]byte{7}, 64))}
	enc, err := c.Encrypt("secret", "master")
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
	if len(raw)%16 != 0 {
		t.Errorf("len(payload) = %d, want a multiple of 16", len(raw))
	}
	if !bytes.Equal(raw[:8], bytes.Repeat([]byte{7}, 8)) {
		t.Errorf("salt = %x, want the random prefix", raw[:8])
	}
	// 8 salt + 1 pad byte + 16 ciphertext = 25, so 7 bytes of noise follow.
	if raw[8] != 7 || len(raw) != 32 {
		t.Errorf("padLen = %d, len = %d, want 7 and 32", raw[8], len(raw))
	}
}

func TestDecryptWithWrongPassword(t *testing.T) {
	t.Parallel()

	c := &Cipher{}
	enc, err := c.Encrypt("hunter2-hunter2-hunter2", "right")
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Decrypt(enc, "wrong")
	if err == nil && got == "hunter2-hunter2-hunter2" {
		t.Error("Decrypt with the wrong password returned the clear text")
	}
}

func TestDecryptMalformed(t *testing.T) {
	t.Parallel()

	c := &Cipher{}
	for _, in := range []string{"!!!", base64.StdEncoding.EncodeToString([]byte{1, 2, 3}), base64.StdEncoding.EncodeToString(make([]byte, 12))} {
		if _, err := c.Decrypt(in, "x"); !errors.Is(err, ErrMalformed) {
			t.Errorf("Decrypt(%q) = %v, want ErrMalformed", in, err)
		}
	}
}

func TestUndecorate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "{abc=}", want: "abc="},
		{in: "prefix {abc} suffix", want: "abc"},
		{in: `\{not} {real}`, want: "real"},
		{in: "plain", wantErr: true},
		{in: "{}", wantErr: true},
		{in: "{open", wantErr: true},
	}

	for _, tt := range tests {
		got, err := Undecorate(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrNotDecorated) {
				t.Errorf("Undecorate(%q) = %v, want ErrNotDecorated", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Undecorate(%q) = (%q, %v), want %q", tt.in, got, err, tt.want)
		}
	}
}
