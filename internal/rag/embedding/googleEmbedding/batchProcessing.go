package googleEmbedding

import (
	"fmt"

	"google.golang.org/genai"
)

const (
	taskDocument = "RETRIEVAL_DOCUMENT"
	taskQuery    = "RETRIEVAL_QUERY"
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

// toVectors keeps the response in request order and rejects partial answers.
func toVectors(res *genai.EmbedContentResponse, expected int) ([][]float32, error) {
	if res == nil {
		return nil, fmt.Errorf("google returned no embedding response")
	}
	if len(res.Embeddings) != expected {
		return nil, fmt.Errorf("google returned %d embeddings for %d inputs", len(res.Embeddings), expected)
	}
	results := make([][]float32, 0, expected)
	for i, r := range res.Embeddings {
		if r == nil || len(r.Values) == 0 {
			return nil, fmt.Errorf("google returned an empty embedding at position %d", i)
		}
		results = append(results, r.Values)
	}
	return results, nil
}
