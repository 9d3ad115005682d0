// Package fakeEmbedding provides a deterministic, offline embedder for tests.
package fakeEmbedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const Dimension = 256

// BagOfWords hashes lowercased words into a fixed number of buckets and L2-normalises the counts.
// Texts sharing words score high under cosine similarity, which is all retrieval tests need.
type BagOfWords struct {
	Model string
	Calls int
}

func New(model string) *BagOfWords {
	return &BagOfWords{Model: model}
}

func (b *BagOfWords) ModelName() string {
	return b.Model
}

func (b *BagOfWords) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.Calls++
	return Vector(query), nil
}

func (b *BagOfWords) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.Calls++
	out := make([][]float32, len(chunks))
	for i, c := range chunks {
		out[i] = Vector(c)
	}
	return out, nil
}

func Vector(text string) []float32 {
	v := make([]float32, Dimension)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.Is(unicode.Mn, r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%Dimension]++
	}

	var norm float64
	for _, x := range v {
		norm += float64(x * x)
	}
	if norm == 0 {
		// keep the vector usable for cosine similarity
		v[0] = 1
		return v
	}
	n := float32(math.Sqrt(norm))
	for i := range v {
		v[i] /= n
	}
	return v
}
