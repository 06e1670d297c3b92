package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidatePath checks that a raw path string loaded from a config file does
// not contain directory-traversal sequences, before it is handed to the
// engine's own Path parser. This guards the config-loading boundary only;
// it has no bearing on in-engine path resolution.
func ValidatePath(path string, allowAbsolute bool) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	cleanPath := filepath.Clean(path)

	// Checked on the raw string: Clean folds a leading "/.." into "/".
	if strings.Contains(path, "..") {
		return fmt.Errorf("path contains directory traversal: %s", path)
	}

	if !allowAbsolute && filepath.IsAbs(cleanPath) {
		return fmt.Errorf("absolute paths not allowed: %s", path)
	}

	return nil
}

// ValidateRoots checks every configured root against ValidatePath, requiring
// absolute paths (roots are always absolute in the filesystem model).
func ValidateRoots(roots []string) error {
	for _, r := range roots {
		if !filepath.IsAbs(r) {
			return fmt.Errorf("invalid root %q: root must be an absolute path", r)
		}
		if err := ValidatePath(r, true); err != nil {
			return fmt.Errorf("invalid root %q: %w", r, err)
		}
	}
	return nil
}

// ValidatePathWithinBase checks that path, once resolved, stays within base.
// Used when loading auxiliary files (e.g. a log file path) relative to a
// configuration directory.
func ValidatePathWithinBase(base, path string) error {
	if base == "" {
		return fmt.Errorf("base path cannot be empty")
	}
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	cleanBase := filepath.Clean(base)
	cleanPath := filepath.Clean(path)

	if filepath.IsAbs(cleanPath) {
		if !strings.HasPrefix(cleanPath, cleanBase+string(filepath.Separator)) &&
			cleanPath != cleanBase {
			return fmt.Errorf("path %s is outside base directory %s", path, base)
		}
		return nil
	}

	fullPath := filepath.Join(cleanBase, cleanPath)
	if !strings.HasPrefix(fullPath, cleanBase+string(filepath.Separator)) &&
		fullPath != cleanBase {
		return fmt.Errorf("path %s escapes base directory %s", path, base)
	}

	return nil
}
