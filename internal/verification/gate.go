// Package verification tracks whether a guest session has passed phone verification.
package verification

import "github.com/Beka01247/kwaaka-table/internal/domain"

type State string

const (
	Unverified State = "UNVERIFIED"
	Verified   State = "VERIFIED"
)

// Gate is the per-session verification state. VERIFIED is absorbing.
type Gate struct {
	state     State
	challenge string
}

// NewGate starts VERIFIED unless the branch requires OTP and the session has not
// verified yet.
func NewGate(otpRequired, verified bool) *Gate {
	if !otpRequired || verified {
		return &Gate{state: Verified}
	}
	return &Gate{state: Unverified}
}

func (g *Gate) State() State {
	return g.state
}

// Check blocks order submission while the session is unverified.
func (g *Gate) Check() error {
	if g.state == Unverified {
		return domain.ErrVerificationRequired
	}
	return nil
}

// Begin records the challenge the collaborator issued. A newer challenge replaces the
// previous one.
func (g *Gate) Begin(challengeID string) {
	if g.state == Verified {
		return
	}
	g.challenge = challengeID
}

func (g *Gate) Pending() string {
	return g.challenge
}

// Complete consumes the collaborator's verdict for challengeID.
func (g *Gate) Complete(challengeID string, ok bool) error {
	if g.state == Verified {
		return nil
	}
	if challengeID == "" || challengeID != g.challenge {
		return domain.ErrChallengeMismatch
	}
	if !ok {
		return domain.ErrCodeRejected
	}
	g.state = Verified
	g.challenge = ""
	return nil
}
