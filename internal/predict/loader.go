package predict

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modelExt = ".model"

var errFound = errors.New("found")

// FindModelFile returns the first model file in dirs, looking at each
// directory's top level before walking into it.
func FindModelFile(dirs []string) (string, bool) {
	for _, d := range dirs {
		info, err := os.Stat(d)

		if err != nil || !info.IsDir() {
			continue
		}

		matches, _ := filepath.Glob(filepath.Join(d, "*"+modelExt))
		sort.Strings(matches)

		for _, m := range matches {
			if isFile(m) {
				return m, true
			}
		}

		var found string

		_ = filepath.WalkDir(d, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}

			if !entry.IsDir() && strings.HasSuffix(entry.Name(), modelExt) {
				found = path
				return errFound
			}

			return nil
		})

		if found != "" {
			return found, true
		}
	}

	return "", false
}

// LoadModel reads a model file. A directory is searched for its first model file.
func LoadModel(path string) (Model, string, error) {
	info, err := os.Stat(path)

	if err != nil {
		return nil, "", err
	}

	if info.IsDir() {
		candidate, ok := FindModelFile([]string{path})

		if !ok {
			return nil, "", fmt.Errorf("no %s model found in directory: %s", modelExt, path)
		}

		path = candidate
	}

	raw, err := os.ReadFile(path)

	if err != nil {
		return nil, "", err
	}

	m, err := ParseLinearModel(raw)

	if err != nil {
		return nil, "", fmt.Errorf("load %s: %w", path, err)
	}

	return m, path, nil
}

// FindMetadata loads the JSON sidecar next to a model file (same stem, .json).
// Missing or unreadable metadata yields an empty map.
func FindMetadata(path string) map[string]any {
	metaPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".json"

	raw, err := os.ReadFile(metaPath)

	if err != nil {
		return map[string]any{}
	}

	meta := map[string]any{}

	if err := json.Unmarshal(raw, &meta); err != nil {
		return map[string]any{}
	}

	return meta
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
