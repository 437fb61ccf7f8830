package commission

import (
	"crypto/rand"
	"fmt"
	"regexp"
)

const (
	CodePrefix   = "PAL"
	codeLength   = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var codePattern = regexp.MustCompile(`^PAL-[A-Z0-9]{6}$`)

// NewCode returns a random human-readable commission code such as PAL-7QK2ZD.
func NewCode() (string, error) {
	// Largest multiple of the alphabet size below 256, to keep the draw uniform.
	const limit = 256 - 256%len(codeAlphabet)

	out := make([]byte, 0, codeLength)
	buf := make([]byte, codeLength*2)

	for len(out) < codeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("reading random bytes: %w", err)
		}

		for _, b := range buf {
			if int(b) >= limit {
				continue
			}

			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == codeLength {
				break
			}
		}
	}

	return CodePrefix + "-" + string(out), nil
}

func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}
