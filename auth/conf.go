package auth

import "golang.org/x/crypto/bcrypt"

// Conf represents the configuration of the edit passcode gate. Either field
// may be set: PasscodeHash carries a bcrypt hash, Passcode a plaintext value
// hashed at startup. Leaving both empty disables the gate.
type Conf struct {
	Passcode     string `json:"passcode"`
	PasscodeHash string `json:"passcode_hash"`
}

// HashPasscode returns the bcrypt hash of a passcode, suitable for
// PasscodeHash.
func HashPasscode(passcode string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
