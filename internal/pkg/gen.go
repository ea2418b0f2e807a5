package pkg

import (
	"crypto/rand"
	"math/big"
	"strconv"

	"github.com/google/uuid"
)

const (
	roomIDMin   = 100000
	roomIDRange = 900000
)

// GenerateRoomID - generates a six digit room code between 100000 and 999999.
func GenerateRoomID() string {
	n, err := rand.Int(rand.Reader, big.NewInt(roomIDRange))
	if err != nil {
		return ""
	}

	return strconv.FormatInt(roomIDMin+n.Int64(), 10)
}

// GenerateConnectionID - generates a new unique id for a websocket connection.
func GenerateConnectionID() string {
	return uuid.NewString()
}
