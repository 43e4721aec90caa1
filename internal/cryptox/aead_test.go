package cryptox

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func randomKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatal(err)
	}
	return key
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := randomKey(t)
	plaintext := []byte("the quick brown fox jumps over the lazy dog")

	ciphertext, err := Encrypt(key, plaintext)
	if err != nil {
		t.Fatal(err)
	}
	if len(ciphertext) != len(plaintext)+28 {
		t.Fatalf("ciphertext len = %d, want %d", len(ciphertext), len(plaintext)+28)
	}

	got, err := Decrypt(key, ciphertext)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("roundtrip mismatch: got %q, want %q", got, plaintext)
	}
}

func TestDecryptShortCiphertextFails(t *testing.T) {
	key := randomKey(t)
	if _, err := Decrypt(key, []byte("short")); err == nil {
		t.Fatal("expected error for ciphertext shorter than nonce")
	}
}

func TestDecryptTamperedFails(t *testing.T) {
	key := randomKey(t)
	ciphertext, err := Encrypt(key, []byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	ciphertext[len(ciphertext)-1] ^= 0xFF
	if _, err := Decrypt(key, ciphertext); err == nil {
		t.Fatal("expected error for tampered ciphertext")
	}
}
