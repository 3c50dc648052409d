package config

import (
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"reflect"
	"slices"

	"gopkg.in/yaml.v3"
)

// Merge reads the given files, descending into directories, and merges them
// into a single document in the order given. Nested objects are merged key by
// key; any other value of a later file replaces the earlier one, unless
// conflictError is set, in which case differing values are an error.
func Merge(configFiles []string, conflictError bool) ([]byte, error) {
	paths, err := expandPaths(configFiles)
	if err != nil {
		return nil, err
	}

	docs := make([]map[string]any, 0, len(paths))
	for _, path := range paths {
		bs, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		var doc map[string]any
		if err := yaml.Unmarshal(bs, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file %s: %w", path, err)
		}

		docs = append(docs, doc)
	}

	merged := make(map[string]any)
	for _, doc := range docs {
		if err := mergeInto(merged, doc, "", conflictError); err != nil {
			return nil, err
		}
	}

	bs, err := yaml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal merged config: %w", err)
	}

	return bs, nil
}

// expandPaths replaces every directory by the files below it, in lexical
// order.
func expandPaths(configFiles []string) ([]string, error) {
	var paths []string
	for _, f := range configFiles {
		err := filepath.WalkDir(f, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func mergeInto(dst, src map[string]any, path string, conflictError bool) error {
	// Sorted so that conflicts are reported deterministically.
	for _, key := range slices.Sorted(maps.Keys(src)) {
		value := src[key]
		keyPath := path + "/" + key

		existing, ok := dst[key]
		if !ok {
			dst[key] = value
			continue
		}

		existingMap, ok1 := existing.(map[string]any)
		valueMap, ok2 := value.(map[string]any)
		if ok1 && ok2 {
			if err := mergeInto(existingMap, valueMap, keyPath, conflictError); err != nil {
				return err
			}
			continue
		}

		if conflictError && !reflect.DeepEqual(existing, value) {
			return fmt.Errorf("%w: conflicting values for %s", ErrInvalid, keyPath)
		}

		dst[key] = value
	}
	return nil
}
