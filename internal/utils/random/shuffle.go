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

// PickWinners draws count distinct elements from participants, uniformly at
// random without replacement. The result has min(count, len(participants))
// elements and the input slice is left untouched.
func PickWinners[T any](participants []T, count int) ([]T, error) {
	if count <= 0 || len(participants) == 0 {
		return nil, nil
	}

	pool := make([]T, len(participants))
	copy(pool, participants)

	if err := Shuffle(pool); err != nil {
		return nil, err
	}

	if count > len(pool) {
		count = len(pool)
	}
	return pool[:count], nil
}
