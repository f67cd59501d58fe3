// Package idgen generates the two kinds of id the server hands out: short
// human-typeable game ids, and globally unique chat message ids.
package idgen

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

const gameIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GameID returns a random uppercase base36 id of the given length, drawn
// from crypto/rand; game ids use length 6 (spec §3:
// "gameId (6-character uppercase alphanumeric, unique among active
// games)"). Uniqueness against currently active games is the caller's
// responsibility — see internal/registry, which retries on collision.
func GameID(length int) string {
	buf := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(gameIDAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			// crypto/rand failing means the platform RNG is broken; there
			// is nothing sane to fall back to.
			panic(err)
		}
		buf[i] = gameIDAlphabet[n.Int64()]
	}
	return string(buf)
}

// ChatMessageID returns a fresh unique id for a ChatMessage.
func ChatMessageID() string {
	return uuid.NewString()
}
