package tokenpkg

import "time"

// Maker is an interface for managing tokens.
type Maker interface {
	// CreateToken creates a token for the given user and duration.
	CreateToken(username string, userID int32, duration time.Duration) (string, *Payload, error)

	// VerifyToken checks if the token is valid and returns its payload.
	VerifyToken(token string) (*Payload, error)
}
