// Package generator produces the one-time authorization codes pushed to a
// user's chat and typed back at the kiosk terminal.
package generator

import (
	"math/rand"

	"kiosk/internal/authcode/models"
)

// Generator draws 4-digit codes with pairwise distinct digits and a non-zero
// leading digit. Distinct digits keep the code easy to relay verbally while
// still giving 9*9*8*7 = 4536 possibilities, plenty for a short-lived,
// registry-checked code; this is deliberately not a cryptographic nonce.
type Generator struct {
	perm func(n int) []int
}

// New returns a Generator backed by the shared math/rand source.
func New() *Generator {
	return &Generator{perm: rand.Perm}
}

// NewWithPerm substitutes the digit-shuffling source. Tests use it to force
// specific codes and registry collisions.
func NewWithPerm(perm func(n int) []int) *Generator {
	return &Generator{perm: perm}
}

// Code samples 4 distinct digits without replacement. If the first digit drawn
// is zero it is swapped with the first non-zero digit among the remaining
// three, which must exist since the digits are distinct.
func (g *Generator) Code() models.Code {
	digits := g.perm(10)[:4]

	if digits[0] == 0 {
		for i := 1; i < 4; i++ {
			if digits[i] != 0 {
				digits[0], digits[i] = digits[i], digits[0]
				break
			}
		}
	}

	code := 0
	for _, d := range digits {
		code = code*10 + d
	}
	return models.Code(code)
}
