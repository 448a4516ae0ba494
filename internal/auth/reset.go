package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

const resetTokenBytes = 32

// ResetToken is a freshly minted password-reset credential. Raw goes to the
// user once; only Digest and ExpiresAt are stored.
type ResetToken struct {
	Raw       string
	Digest    string
	ExpiresAt time.Time
}

func (m *Manager) NewResetToken() (ResetToken, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return ResetToken{}, err
	}

	raw := hex.EncodeToString(b)

	return ResetToken{
		Raw:       raw,
		Digest:    ResetDigest(raw),
		ExpiresAt: m.now().UTC().Add(m.resetTTL),
	}, nil
}

// ResetDigest is the same at issuance and redemption.
func ResetDigest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
