package transform

import (
	"bytes"
	"context"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 32)
	e, err := NewEncryptTransform("enc", true, "", key)
	if err != nil {
		t.Fatalf("NewEncryptTransform: %v", err)
	}
	d, err := NewDecryptTransform("dec", true, "", key)
	if err != nil {
		t.Fatalf("NewDecryptTransform: %v", err)
	}

	input := []byte("top secret bytes")
	ciphertext, err := e.Apply(context.Background(), input, "/f.bin", Meta{})
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Equal(ciphertext, input) {
		t.Fatalf("expected ciphertext to differ from plaintext")
	}

	plain, err := d.Apply(context.Background(), ciphertext, "/f.bin", Meta{})
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(plain, input) {
		t.Fatalf("expected round trip to recover original input, got %q", plain)
	}
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	key1 := bytes.Repeat([]byte{0x01}, 32)
	key2 := bytes.Repeat([]byte{0x02}, 32)

	e, _ := NewEncryptTransform("enc", true, "", key1)
	d, _ := NewDecryptTransform("dec", true, "", key2)

	ciphertext, _ := e.Apply(context.Background(), []byte("data"), "/f.bin", Meta{})
	if _, err := d.Apply(context.Background(), ciphertext, "/f.bin", Meta{}); err == nil {
		t.Fatalf("expected decryption with the wrong key to fail")
	}
}
