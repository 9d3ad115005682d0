package googleEmbedding

import (
	"fmt"

	"google.golang.org/genai"
)

func getContent(chunks []string) []*genai.Content {
	contentsToSend := make([]*genai.Content, 0, len(chunks))

	for _, chunk := range chunks {
		contentsToSend = append(contentsToSend, &genai.Content{
			Parts: []*genai.Part{{Text: chunk}},
		})
	}
	return contentsToSend
}

// batches cuts texts into slices the embedContent endpoint accepts in one call.
func batches(texts []string, size int) [][]string {
	if size <= 0 {
		size = len(texts)
	}
	var out [][]string
	for i := 0; i < len(texts); i += size {
		end := min(i+size, len(texts))
		out = append(out, texts[i:end])
	}
	return out
}

func toVectors(res *genai.EmbedContentResponse, want int) ([][]float32, error) {
	if res == nil || len(res.Embeddings) != want {
		got := 0
		if res != nil {
			got = len(res.Embeddings)
		}
		return nil, fmt.Errorf("expected %d embeddings, got %d", want, got)
	}
	vectors := make([][]float32, 0, want)
	for i, e := range res.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("embedding %d is empty", i)
		}
		vectors = append(vectors, e.Values)
	}
	return vectors, nil
}
