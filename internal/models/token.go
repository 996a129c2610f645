package models

import (
	"time"
)

// Single signed token as handed to the client
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Pair of tokens issued on a credential login
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
