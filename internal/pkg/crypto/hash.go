package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// SessionDigest returns the hex SHA-256 of a session id. It is the only form
// of the id that reaches the session store, and it doubles as the additional
// data when records are sealed.
func SessionDigest(sessionID string) string {
	sum := sha256.Sum256([]byte(sessionID))
	return hex.EncodeToString(sum[:])
}
