package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const upperLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RandomLetters sinh n chữ cái in hoa (crypto/rand)
func RandomLetters(n int) string {
	var sb strings.Builder
	alphabet := big.NewInt(int64(len(upperLetters)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, alphabet)
		if err != nil {
			sb.WriteByte(upperLetters[i%len(upperLetters)])
			continue
		}
		sb.WriteByte(upperLetters[idx.Int64()])
	}
	return sb.String()
}
