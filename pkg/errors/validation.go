package errors

import (
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
//
// The decomposer itself accepts any string; this check is only applied
// where a caller asks for strict input, such as the API's strict mode.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	for _, r := range rawURL {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "URL contains whitespace or control characters")
		}
	}

	return nil
}

// RecipeExtensions lists the file extensions recipes can be decoded from.
var RecipeExtensions = []string{".toml", ".yaml", ".yml", ".json"}

// ValidateRecipePath validates a recipe file path.
// It rejects empty paths, control characters and unsupported extensions.
func ValidateRecipePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "recipe path cannot be empty")
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "recipe path contains invalid characters")
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(RecipeExtensions, ext) {
		return New(ErrCodeInvalidFormat, "unsupported recipe format %q (want one of %s)",
			ext, strings.Join(RecipeExtensions, ", "))
	}

	return nil
}

// paramKeyRegex matches parameter keys: an identifier with optional
// camelCase, digits, underscores or dashes.
var paramKeyRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// ValidateParamKey validates a block parameter key received from outside.
// The engine stores any key; this only keeps garbage out of API payloads.
func ValidateParamKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidParam, "parameter key cannot be empty")
	}

	const maxKeyLength = 64
	if len(key) > maxKeyLength {
		return New(ErrCodeInvalidParam, "parameter key too long (max %d characters)", maxKeyLength)
	}

	if !paramKeyRegex.MatchString(key) {
		return New(ErrCodeInvalidParam, "invalid parameter key: %q", key)
	}

	return nil
}
