package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CodeGenerator draws uniformly distributed numeric codes from crypto/rand.
type CodeGenerator struct{}

func NewCodeGenerator() CodeGenerator { return CodeGenerator{} }

func (CodeGenerator) Generate(length int) (string, error) {
	if length <= 0 || length > 18 {
		return "", fmt.Errorf("unsupported code length %d", length)
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n.Int64()), nil
}
