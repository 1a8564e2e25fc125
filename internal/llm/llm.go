package llm

import "context"

// ImageInput is a pre-normalized image handed to a vision-capable model.
// Decoding and resizing happen before the pipeline runs; here the image
// is only forwarded as MIME type plus raw bytes.
type ImageInput struct {
	MIMEType string
	Data     []byte
}

// Provider is the interface a language model implementation must satisfy.
// Generate returns the raw model reply; callers are responsible for
// decoding any structured payload embedded in it.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateWithImage(ctx context.Context, prompt string, image ImageInput) (string, error)
}
