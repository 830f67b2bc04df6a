package domain

// VectorConfig holds the embedding model settings vectors are produced with.
type VectorConfig struct {
	Model      string
	Dimensions int
}

// DefaultVectorConfig returns the defaults for Gemini text-embedding-004.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:      "text-embedding-004",
		Dimensions: 768,
	}
}
