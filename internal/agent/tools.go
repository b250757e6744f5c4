package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"issue-reviewer/internal/retriever"
)

// Tool is a capability the model may invoke during a review session.
type Tool interface {
	Name() string
	Definition() openai.Tool
	Call(ctx context.Context, args json.RawMessage) (string, error)
}

// SearchCode lets the model search the indexed repository. It returns the
// most relevant chunks, not whole files.
type SearchCode struct {
	Retriever *retriever.Retriever
	K         int
}

// Name returns the tool name advertised to the model.
func (t *SearchCode) Name() string { return "search_code" }

// Definition describes the tool for the chat completion request.
func (t *SearchCode) Definition() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name: t.Name(),
			Description: "Search the repository for code relevant to a query. " +
				"Returns the most relevant code chunks, not full files.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"query": {
						Type:        jsonschema.String,
						Description: "Search query to find relevant code",
					},
				},
				Required: []string{"query"},
			},
		},
	}
}

// Call runs the search and returns the formatted chunk list.
func (t *SearchCode) Call(_ context.Context, args json.RawMessage) (string, error) {
	var params struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return "", fmt.Errorf("bad search_code arguments: %w", err)
	}
	return t.Retriever.Query(params.Query, t.K)
}

// ReadFile lets the model read one repository file, confined to the
// repository root and truncated to keep the context small.
type ReadFile struct {
	Root     string
	MaxBytes int
}

// Name returns the tool name advertised to the model.
func (t *ReadFile) Name() string { return "get_file_contents" }

// Definition describes the tool for the chat completion request.
func (t *ReadFile) Definition() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        t.Name(),
			Description: "Read the contents of a file from the repository",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"file_path": {
						Type:        jsonschema.String,
						Description: "Relative path to the file in the repository",
					},
				},
				Required: []string{"file_path"},
			},
		},
	}
}

// Call reads the requested file. Failures are reported as plain strings so
// the model can recover instead of the session aborting.
func (t *ReadFile) Call(_ context.Context, args json.RawMessage) (string, error) {
	var params struct {
		FilePath string `json:"file_path"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return "", fmt.Errorf("bad get_file_contents arguments: %w", err)
	}

	realRoot, err := filepath.EvalSymlinks(t.Root)
	if err != nil {
		return "", err
	}
	full := filepath.Join(realRoot, filepath.FromSlash(params.FilePath))
	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("Error: File not found: %s", params.FilePath), nil
		}
		return fmt.Sprintf("Error reading file: %v", err), nil
	}
	if rel, err := filepath.Rel(realRoot, resolved); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "Error: Access denied - path is outside the repository", nil
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return fmt.Sprintf("Error reading file: %v", err), nil
	}
	maxBytes := t.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 10_000
	}
	if len(data) > maxBytes {
		return string(data[:maxBytes]) + "\n\n... [truncated - file too large]", nil
	}
	return string(data), nil
}
