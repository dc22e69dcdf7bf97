package parsers

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lacework/code-security-action/internal/models"
)

// ParseLWJSONFile reads an lw-json report produced with --fix-suggestions
func ParseLWJSONFile(path string) (*models.LWJSON, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseLWJSON(content)
}

// ParseLWJSON decodes lw-json content
func ParseLWJSON(content []byte) (*models.LWJSON, error) {
	var report models.LWJSON
	if err := json.Unmarshal(content, &report); err != nil {
		return nil, fmt.Errorf("failed to parse lw-json report: %w", err)
	}
	return &report, nil
}
