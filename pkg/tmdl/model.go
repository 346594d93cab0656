package tmdl

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Fixed names of the semantic-model folder layout.
const (
	DefinitionDir = "definition"
	TablesDir     = "tables"
	MainFileName  = "model.tmdl"
	FileExt       = ".tmdl"
)

// Structure errors returned by Resolve. Each failing check short-circuits
// with its own error; no partial result is returned.
var (
	ErrRootNotFound       = errors.New("semantic model folder does not exist")
	ErrDefinitionNotFound = errors.New("definition folder not found in semantic model")
	ErrMainFileNotFound   = errors.New("model.tmdl not found in definition folder")
)

// FileRole distinguishes the main definition file from per-table files.
type FileRole string

// File roles.
const (
	RoleMain  FileRole = "main"
	RoleTable FileRole = "table"
)

// ModelFile is one definition file of a semantic model. Content is loaded
// explicitly and may be refreshed across fix operations.
type ModelFile struct {
	Path    string
	Role    FileRole
	Content string
}

// Reload reads the file's current content from disk.
func (f *ModelFile) Reload() error {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", f.Path, err)
	}
	f.Content = string(data)
	return nil
}

// Resolve validates the expected folder structure under root and returns
// the absolute path of the main definition file.
func Resolve(root string) (string, error) {
	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}

	definition := filepath.Join(root, DefinitionDir)
	if fi, err := os.Stat(definition); err != nil || !fi.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrDefinitionNotFound, root)
	}

	mainPath := filepath.Join(definition, MainFileName)
	if fi, err := os.Stat(mainPath); err != nil || fi.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrMainFileNotFound, definition)
	}

	abs, err := filepath.Abs(mainPath)
	if err != nil {
		return mainPath, nil
	}
	return abs, nil
}

// ListModelFiles enumerates the main file plus every .tmdl file directly
// inside the tables folder next to it. The main file is always first;
// table files follow in directory-listing order. Contents are not loaded.
func ListModelFiles(mainPath string) ([]*ModelFile, error) {
	files := []*ModelFile{{Path: mainPath, Role: RoleMain}}

	tablesDir := filepath.Join(filepath.Dir(mainPath), TablesDir)
	entries, err := os.ReadDir(tablesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return files, nil
		}
		return nil, fmt.Errorf("listing %s: %w", tablesDir, err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), FileExt) {
			continue
		}
		files = append(files, &ModelFile{
			Path: filepath.Join(tablesDir, e.Name()),
			Role: RoleTable,
		})
	}
	return files, nil
}
