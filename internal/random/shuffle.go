package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Shuffle performs a cryptographically secure shuffle of the slice.
func Shuffle[T any](slice []T) error {
	n := len(slice)
	for i := n - 1; i > 0; i-- {
		jBig, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return fmt.Errorf("failed to generate random number: %w", err)
		}
		j := int(jBig.Int64())
		slice[i], slice[j] = slice[j], slice[i]
	}
	return nil
}

// Sample draws k distinct elements uniformly without replacement.
// The pool is left untouched; k is clamped to len(pool).
func Sample[T any](pool []T, k int) ([]T, error) {
	if k <= 0 || len(pool) == 0 {
		return []T{}, nil
	}
	if k > len(pool) {
		k = len(pool)
	}

	shuffled := append([]T(nil), pool...)
	if err := Shuffle(shuffled); err != nil {
		return nil, err
	}
	return shuffled[:k], nil
}
