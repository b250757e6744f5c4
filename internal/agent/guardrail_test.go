package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestGuardrail_Check(t *testing.T) {
	g := NewGuardrail(zap.NewNop())

	tests := []struct {
		name    string
		tool    string
		args    string
		blocked bool
	}{
		{"plain relative path", "get_file_contents", `{"file_path": "src/auth/login.py"}`, false},
		{"no path argument", "search_code", `{"query": "token expiry"}`, false},
		{"parent traversal", "get_file_contents", `{"file_path": "../../etc/passwd"}`, true},
		{"embedded traversal", "get_file_contents", `{"file_path": "src/../../other"}`, true},
		{"absolute path", "get_file_contents", `{"file_path": "/etc/shadow"}`, true},
		{"dotenv", "get_file_contents", `{"file_path": ".env"}`, true},
		{"dotenv nested", "get_file_contents", `{"file_path": "config/.env.production"}`, true},
		{"git config", "get_file_contents", `{"file_path": ".git/config"}`, true},
		{"ssh key", "get_file_contents", `{"file_path": "keys/id_rsa"}`, true},
		{"credentials upper case", "get_file_contents", `{"file_path": "AWS/Credentials"}`, true},
		{"non-string path", "get_file_contents", `{"file_path": 7}`, true},
		{"garbage args", "get_file_contents", `{"file_path"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Check(tt.tool, json.RawMessage(tt.args))
			if tt.blocked {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
