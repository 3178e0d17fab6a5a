// SPDX-License-Identifier: MPL-2.0

package treediff

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// statShape is the comparable stat view of one side of a path. Its JSON
// rendering is what stat records diff.
type statShape struct {
	Exists      bool `json:"exists"`
	IsFile      bool `json:"isFile"`
	IsDirectory bool `json:"isDirectory"`
}

// statPath follows symlinks. A missing path is a valid all-false shape; any
// other failure is returned.
func statPath(path string) (statShape, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return statShape{}, nil
	}
	if err != nil {
		return statShape{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return statShape{
		Exists:      true,
		IsFile:      info.Mode().IsRegular(),
		IsDirectory: info.IsDir(),
	}, nil
}

func (s statShape) render() string {
	// Marshalling a struct of bools cannot fail.
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data) + "\n"
}
