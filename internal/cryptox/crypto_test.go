package cryptox

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveKey(password, salt)
	key2 := DeriveKey(password, salt)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}

	if len(key1) != 32 {
		t.Fatalf("expected a 32-byte key, got %d bytes", len(key1))
	}

	// argon2id with time=1, memory=64MiB, threads=4.
	expectedHex := "9290403300158e19f27e48e7087f7383b03065bf5b25ef23ebc40229616cd8b3"
	if hex.EncodeToString(key1) != expectedHex {
		t.Errorf("expected %s, got %s", expectedHex, hex.EncodeToString(key1))
	}
}

func TestDeriveKey_DifferentSalts(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveKey(password, []byte("salt-1"))
	key2 := DeriveKey(password, []byte("salt-2"))

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}
}

func TestSealOpen_RoundTrip(t *testing.T) {
	key := DeriveKey([]byte("pass"), []byte("0123456789abcdef"))

	ct, nonce, err := Seal([]byte("ghp_token"), key)
	require.NoError(t, err)
	assert.NotContains(t, string(ct), "ghp_token")

	pt, err := Open(ct, nonce, key)
	require.NoError(t, err)
	assert.Equal(t, "ghp_token", string(pt))
}

func TestSeal_FreshNonce(t *testing.T) {
	key := make([]byte, 32)

	ct1, n1, err := Seal([]byte("same"), key)
	require.NoError(t, err)
	ct2, n2, err := Seal([]byte("same"), key)
	require.NoError(t, err)

	assert.NotEqual(t, n1, n2)
	assert.NotEqual(t, ct1, ct2)
}

func TestOpen_Failures(t *testing.T) {
	key := DeriveKey([]byte("right"), []byte("salt"))
	ct, nonce, err := Seal([]byte("secret"), key)
	require.NoError(t, err)

	_, err = Open(ct, nonce, DeriveKey([]byte("wrong"), []byte("salt")))
	assert.ErrorIs(t, err, ErrDecrypt)

	tampered := bytes.Clone(ct)
	tampered[0] ^= 0xff
	_, err = Open(tampered, nonce, key)
	assert.ErrorIs(t, err, ErrDecrypt)

	_, err = Open(ct, nonce[:4], key)
	assert.ErrorIs(t, err, ErrDecrypt)

	_, err = Open(ct, nonce, []byte("short"))
	assert.Error(t, err)
}
