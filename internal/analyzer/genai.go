// internal/analyzer/genai.go
package analyzer

import (
	"bytes"
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/socialpulse/viralpipe/internal/config"
	"github.com/socialpulse/viralpipe/internal/errors"
)

// fileRef is the analyzer's view of an uploaded media file.
type fileRef struct {
	Name     string
	URI      string
	MIMEType string
	Active   bool
}

// contentClient is the slice of the generative AI service the analyzer needs.
// The production implementation wraps the Gemini SDK; tests substitute a fake.
type contentClient interface {
	Upload(ctx context.Context, data []byte, mimeType string) (*fileRef, error)
	GetFile(ctx context.Context, name string) (*fileRef, error)
	Generate(ctx context.Context, model string, file *fileRef, prompt string) (string, error)
	DeleteFile(ctx context.Context, name string) error
}

// geminiClient implements contentClient on the Gemini API.
type geminiClient struct {
	client          *genai.Client
	maxOutputTokens int32
}

func newGeminiClient(ctx context.Context, cfg config.AnalyzerConfig) (*geminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &geminiClient{client: client, maxOutputTokens: cfg.MaxOutputTokens}, nil
}

func (g *geminiClient) Upload(ctx context.Context, data []byte, mimeType string) (*fileRef, error) {
	file, err := g.client.Files.Upload(ctx, bytes.NewReader(data), &genai.UploadFileConfig{
		MIMEType: mimeType,
	})
	if err != nil {
		return nil, errors.NewTransient("gemini upload", err)
	}
	return toFileRef(file), nil
}

func (g *geminiClient) GetFile(ctx context.Context, name string) (*fileRef, error) {
	file, err := g.client.Files.Get(ctx, name, nil)
	if err != nil {
		return nil, errors.NewTransient("gemini file poll", err)
	}
	if file.State == genai.FileStateFailed {
		return nil, fmt.Errorf("gemini failed to process uploaded file %s", name)
	}
	return toFileRef(file), nil
}

func (g *geminiClient) Generate(ctx context.Context, model string, file *fileRef, prompt string) (string, error) {
	parts := []*genai.Part{}
	if file != nil {
		parts = append(parts, genai.NewPartFromURI(file.URI, file.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(prompt))
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, &genai.GenerateContentConfig{
		MaxOutputTokens: g.maxOutputTokens,
	})
	if err != nil {
		return "", errors.NewTransient("gemini generate", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned no content for model %s", model)
	}
	return text, nil
}

func (g *geminiClient) DeleteFile(ctx context.Context, name string) error {
	_, err := g.client.Files.Delete(ctx, name, nil)
	return err
}

func toFileRef(file *genai.File) *fileRef {
	return &fileRef{
		Name:     file.Name,
		URI:      file.URI,
		MIMEType: file.MIMEType,
		Active:   file.State == genai.FileStateActive,
	}
}
