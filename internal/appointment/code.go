package appointment

import (
	"crypto/rand"
	"fmt"
)

// codeAlphabet leaves out 0/O and 1/I so codes survive being read aloud.
// Its length is a power of two, so masking a random byte keeps the draw uniform.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

// CodeGenerator returns a new client code.
type CodeGenerator func() (string, error)

// NewClientCode draws a random 6 character client code.
func NewClientCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate client code failed: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)&(len(codeAlphabet)-1)]
	}
	return string(buf), nil
}
