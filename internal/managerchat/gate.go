package managerchat

import "crypto/subtle"

// Gate is the placeholder credential check in front of the manager view. It
// is a single shared passcode, not an authentication system; a real deployment
// would substitute its own authorization collaborator here.
type Gate struct {
	passcode string
}

// NewGate creates a gate around the configured passcode. An empty passcode
// leaves the gate open.
func NewGate(passcode string) *Gate {
	return &Gate{passcode: passcode}
}

// Authenticate reports whether the supplied credentials are accepted.
func (g *Gate) Authenticate(passcode string) bool {
	if g.passcode == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(g.passcode), []byte(passcode)) == 1
}
