// Package auth guards board edits behind a shared passcode. Reads are always
// open; anything that mutates the schedule or the registries verifies the
// caller's passcode first.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrBadPasscode is returned when the presented passcode does not match.
var ErrBadPasscode = errors.New("invalid passcode")

// Gate verifies edit passcodes. The zero value is a disabled gate.
type Gate struct {
	hash []byte
}

// NewGate builds a gate from configuration. A plaintext passcode is hashed
// immediately so it never sticks around; a configured hash is validated up
// front so a typo fails at startup instead of locking every edit out.
func NewGate(conf Conf) (*Gate, error) {
	switch {
	case conf.PasscodeHash != "":
		if _, err := bcrypt.Cost([]byte(conf.PasscodeHash)); err != nil {
			return nil, fmt.Errorf("passcode_hash is not a bcrypt hash: %w", err)
		}
		return &Gate{hash: []byte(conf.PasscodeHash)}, nil
	case conf.Passcode != "":
		h, err := bcrypt.GenerateFromPassword([]byte(conf.Passcode), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		return &Gate{hash: h}, nil
	default:
		return &Gate{}, nil
	}
}

// Enabled reports whether a passcode is required.
func (g *Gate) Enabled() bool {
	return g != nil && len(g.hash) > 0
}

// Verify checks the presented passcode. A disabled gate accepts anything.
func (g *Gate) Verify(passcode string) error {
	if !g.Enabled() {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(passcode)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrBadPasscode
		}
		return err
	}
	return nil
}
