// internal/analyzer/analyzer_test.go
package analyzer

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/socialpulse/viralpipe/internal/config"
	"github.com/socialpulse/viralpipe/internal/utils"
	"github.com/socialpulse/viralpipe/pkg/types"
)

// fakeContentClient simulates the generative service: uploads need a few
// polls to become active, prompts are answered canned.
type fakeContentClient struct {
	pollsToActive int
	polls         int
	uploads       int
	deletes       []string
	prompts       []string
	generateErr   error
}

func (f *fakeContentClient) Upload(_ context.Context, data []byte, mimeType string) (*fileRef, error) {
	f.uploads++
	if len(data) == 0 {
		return nil, fmt.Errorf("empty upload")
	}
	return &fileRef{Name: "files/abc", URI: "uri://abc", MIMEType: mimeType, Active: f.pollsToActive == 0}, nil
}

func (f *fakeContentClient) GetFile(_ context.Context, name string) (*fileRef, error) {
	f.polls++
	return &fileRef{Name: name, URI: "uri://abc", MIMEType: "video/mp4", Active: f.polls >= f.pollsToActive}, nil
}

func (f *fakeContentClient) Generate(_ context.Context, model string, file *fileRef, prompt string) (string, error) {
	if f.generateErr != nil {
		return "", f.generateErr
	}
	f.prompts = append(f.prompts, prompt)
	if file != nil {
		return "scene breakdown", nil
	}
	return "virality explanation", nil
}

func (f *fakeContentClient) DeleteFile(_ context.Context, name string) error {
	f.deletes = append(f.deletes, name)
	return nil
}

func testAnalyzer(client contentClient) *Analyzer {
	return &Analyzer{
		cfg: config.AnalyzerConfig{
			Model:        "gemini-2.5-flash",
			PollInterval: time.Millisecond,
			Timeout:      time.Second,
		},
		client: client,
		logger: utils.NewComponentLogger("analyzer"),
	}
}

func testAsset() *types.VideoAsset {
	return &types.VideoAsset{
		PostID:      "p1",
		SourceURL:   "http://cdn/p1.mp4",
		ContentType: "video/mp4",
		Data:        []byte("video"),
	}
}

func TestAnalyzeTwoStepFlow(t *testing.T) {
	client := &fakeContentClient{pollsToActive: 3}
	a := testAnalyzer(client)

	rec := types.Record{
		types.FieldPostID:  "p1",
		types.FieldViews:   10000.0,
		types.FieldLikes:   120.0,
		types.FieldCaption: "cats",
		types.FieldViral:   true,
	}

	result, err := a.Analyze(context.Background(), testAsset(), rec)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if result.Breakdown != "scene breakdown" {
		t.Errorf("breakdown = %q", result.Breakdown)
	}
	if result.Virality != "virality explanation" {
		t.Errorf("virality = %q", result.Virality)
	}
	if result.PostID != "p1" || result.Model != "gemini-2.5-flash" {
		t.Errorf("result metadata = %+v", result)
	}

	if client.polls < 3 {
		t.Errorf("polls = %d, want >= 3 (file was processing)", client.polls)
	}
	if len(client.prompts) != 2 {
		t.Fatalf("prompts = %d, want 2", len(client.prompts))
	}
	// The second prompt must ground the model in the record's metrics and the
	// first step's output.
	second := client.prompts[1]
	for _, want := range []string{"Is Viral: true", "Views: 10000", `Caption: "cats"`, "scene breakdown", "went viral"} {
		if !strings.Contains(second, want) {
			t.Errorf("virality prompt missing %q", want)
		}
	}

	if len(client.deletes) != 1 || client.deletes[0] != "files/abc" {
		t.Errorf("uploaded file not cleaned up: %v", client.deletes)
	}
}

func TestAnalyzeNotViralPrompt(t *testing.T) {
	client := &fakeContentClient{}
	a := testAnalyzer(client)

	rec := types.Record{types.FieldPostID: "p2", types.FieldViral: false}
	if _, err := a.Analyze(context.Background(), testAsset(), rec); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	second := client.prompts[1]
	if !strings.Contains(second, "did not go viral") {
		t.Error("virality prompt should frame the not-viral outcome")
	}
}

func TestAnalyzeGenerateFailure(t *testing.T) {
	client := &fakeContentClient{generateErr: fmt.Errorf("model unavailable")}
	a := testAnalyzer(client)

	_, err := a.Analyze(context.Background(), testAsset(), types.Record{})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(client.deletes) != 1 {
		t.Error("uploaded file should be cleaned up even on failure")
	}
}

func TestAnalyzeProcessingTimeout(t *testing.T) {
	client := &fakeContentClient{pollsToActive: 1 << 30}
	a := testAnalyzer(client)
	a.cfg.Timeout = 20 * time.Millisecond

	_, err := a.Analyze(context.Background(), testAsset(), types.Record{})
	if err == nil {
		t.Fatal("expected timeout while file stays in processing")
	}
}
