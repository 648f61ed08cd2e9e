// Package assets keeps a reference to the embedded filesystem holding the
// page templates, set once by main and by tests.
package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

var efs *embed.FS

func GetData() *embed.FS {
	return efs
}

func UpdateData(d *embed.FS) {
	efs = d
}

// ReadFile reads a file from the loaded filesystem.
func ReadFile(name string) ([]byte, error) {
	if efs == nil {
		return nil, fmt.Errorf("embedded data not loaded, unable to read %s", name)
	}
	return efs.ReadFile(name)
}

// GetAllFilenames return all file names under path in the embedded FS, sorted.
func GetAllFilenames(efs *embed.FS, path string) (files []string, err error) {
	if efs == nil {
		return nil, fmt.Errorf("embedded data not loaded")
	}
	if err := fs.WalkDir(efs, path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
