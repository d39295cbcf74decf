// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	_ "embed"
	"fmt"
	"os"

	"graft-cli/internal/cueutil"
)

//go:embed recipe_schema.cue
var recipeSchema string

// Parse reads and parses a recipe file from the given path.
func Parse(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe at %s: %w", path, err)
	}
	return ParseBytes(data, path)
}

// ParseBytes parses recipe content from bytes. The data is unified with the
// embedded schema, validated, and decoded.
func ParseBytes(data []byte, path string) (*Recipe, error) {
	r, err := cueutil.Decode[Recipe](recipeSchema, data, "#Recipe", path)
	if err != nil {
		return nil, err
	}

	r.FilePath = path
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}
