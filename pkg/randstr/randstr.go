package randstr

import (
	"crypto/rand"
	"math/big"
)

type Generator struct {
	alphabet []byte
}

func New(alphabet []byte) *Generator {
	return &Generator{alphabet: alphabet}
}

func (g *Generator) GenerateRandomString(length int) string {
	b := make([]byte, length)
	max := big.NewInt(int64(len(g.alphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// rand.Reader never fails on supported platforms
			panic(err)
		}
		b[i] = g.alphabet[n.Int64()]
	}

	return string(b)
}
