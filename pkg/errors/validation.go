package errors

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/matzehuels/depresolve/pkg/deps"
)

// ValidateManifestFilename validates a file name used in matcher or tool
// configuration. It must be a plain base name.
func ValidateManifestFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidManifest, "manifest filename cannot be empty")
	}
	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidManifest, "manifest filename cannot contain path separators")
	}
	if filename == "." || filename == ".." {
		return New(ErrCodeInvalidManifest, "manifest filename cannot be %q", filename)
	}
	for _, r := range filename {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidManifest, "manifest filename contains invalid control characters")
		}
	}
	return nil
}

// ValidatePath validates a repository-relative path received from outside
// the process, such as a path in a resolution request.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No ".." segments
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateSource checks every path a dependency source references.
func ValidateSource(src deps.DependencySource) error {
	for _, p := range deps.ReferencedPaths(src) {
		if err := ValidatePath(p); err != nil {
			return err
		}
	}
	return nil
}

// ValidateURL validates a resolver URL: it must parse and use http or
// https with a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL must have a host")
	}
	return nil
}

// ValidateEcosystem parses an ecosystem name from user input.
func ValidateEcosystem(name string) (deps.Ecosystem, error) {
	eco, err := deps.ParseEcosystem(name)
	if err != nil {
		return "", Wrap(ErrCodeInvalidEcosystem, err, "unsupported ecosystem")
	}
	return eco, nil
}
