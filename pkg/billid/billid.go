// Package billid generates on-chain bill identifiers and their short,
// URL-friendly digests.
package billid

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// HexLength is the length of a bill id without the 0x prefix.
const HexLength = 64

// ShortLength is the length of a short bill id.
const ShortLength = 8

// Generate returns a new 0x-prefixed 32-byte bill identifier for the given
// wallet address. The id mixes the address and current time with 32 bytes of
// CSPRNG output, so collisions are not a practical concern; the contract still
// rejects duplicate ids at creation time.
func Generate(address string) (string, error) {
	var nonce [32]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("read random nonce: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(strings.ToLower(address)))
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(time.Now().UnixMilli()))
	h.Write(ts[:])
	h.Write(nonce[:])

	return "0x" + hex.EncodeToString(h.Sum(nil)), nil
}

// Short derives the 8-character short id from a full bill id. The digest is
// one way: recovering the full id requires the mapping stored alongside the
// bill at creation time.
func Short(billID string) string {
	cleaned := strings.TrimPrefix(billID, "0x")
	sum := sha256.Sum256([]byte(cleaned))
	return hex.EncodeToString(sum[:])[:ShortLength]
}

// Valid reports whether s looks like a full bill id (0x plus 64 hex chars).
func Valid(s string) bool {
	if !strings.HasPrefix(s, "0x") || len(s) != HexLength+2 {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}
