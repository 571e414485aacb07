package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// Generator mints the public code that gets encoded into a ticket's QR
// payload, plus a keyed integrity tag proving the code was issued here.
// The tag is stored server-side only; a scanner never sees it.
type Generator struct {
	secret []byte
}

func NewGenerator(secret string) *Generator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Generator{secret: hashed[:]}
}

// Seed ties a minted code to the ticket's would-be identity for
// debuggability. Uniqueness does not depend on it: every code carries
// 16 bytes of fresh randomness.
type Seed struct {
	TicketID string
	EventID  string
}

// Mint returns a unique public code and its HMAC-SHA256 integrity tag.
func (g *Generator) Mint(seed Seed) (string, string, error) {
	nonce := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", "", fmt.Errorf("read random nonce: %w", err)
	}

	raw := fmt.Sprintf("%s.%s.%s.%d",
		base64.RawURLEncoding.EncodeToString(nonce),
		seed.TicketID,
		seed.EventID,
		time.Now().UnixNano(),
	)
	code := base64.RawURLEncoding.EncodeToString([]byte(raw))

	return code, g.tag(code), nil
}

// Verify recomputes the tag for code and compares it against tag in
// constant time.
func (g *Generator) Verify(code, tag string) bool {
	return hmac.Equal([]byte(g.tag(code)), []byte(tag))
}

func (g *Generator) tag(code string) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}
