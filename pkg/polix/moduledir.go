//
//  Copyright © Manetu Inc. All rights reserved.
//

package polix

import (
	"os"
	"path/filepath"
	"strings"
)

// LoadModuleDir reads every .yml/.yaml file directly under dir (no
// recursion) and loads them into the engine's registry as one validated
// batch. Returns the number of module files loaded.
func (e *Engine) LoadModuleDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	var files [][]byte
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yml" && ext != ".yaml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name())) // #nosec G304 -- caller-supplied module directory
		if err != nil {
			return 0, err
		}
		files = append(files, data)
	}
	if err := e.LoadModuleFiles(files); err != nil {
		return 0, err
	}
	return len(files), nil
}
