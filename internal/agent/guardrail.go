package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// blockedFragments are path fragments no tool call may touch, whatever the
// issue text asked for.
var blockedFragments = []string{".env", ".git/config", "id_rsa", "credentials"}

// Guardrail inspects tool arguments before execution and rejects anything
// that tries to escape the repository or read sensitive files. Issue text is
// untrusted input; the model relaying it does not make it trusted.
type Guardrail struct {
	logger *zap.Logger
}

// NewGuardrail creates the pre-tool-use check.
func NewGuardrail(logger *zap.Logger) *Guardrail {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guardrail{logger: logger}
}

// Check returns an error when the call must be blocked. Only arguments that
// look like file paths are inspected; other tools pass through.
func (g *Guardrail) Check(toolName string, args json.RawMessage) error {
	var params map[string]any
	if err := json.Unmarshal(args, &params); err != nil {
		return fmt.Errorf("unparseable arguments for %s", toolName)
	}
	raw, ok := params["file_path"]
	if !ok {
		return nil
	}
	path, ok := raw.(string)
	if !ok {
		return fmt.Errorf("file_path must be a string")
	}

	if strings.Contains(path, "..") || strings.HasPrefix(path, "/") {
		g.logger.Warn("blocked tool call: suspicious path",
			zap.String("tool", toolName), zap.String("path", path))
		return fmt.Errorf("path rejected by policy: %s", path)
	}
	lower := strings.ToLower(path)
	for _, fragment := range blockedFragments {
		if strings.Contains(lower, fragment) {
			g.logger.Warn("blocked tool call: sensitive file",
				zap.String("tool", toolName), zap.String("path", path))
			return fmt.Errorf("sensitive file blocked: %s", path)
		}
	}
	g.logger.Debug("allowed tool call", zap.String("tool", toolName), zap.String("path", path))
	return nil
}
