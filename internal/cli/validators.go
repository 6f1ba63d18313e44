package cli

import (
	"fmt"
	"strings"
)

// ValidateContentType validates a content type id such as /page/article
func ValidateContentType(contentType string) error {
	if contentType == "" {
		return fmt.Errorf("content type cannot be empty")
	}
	if !strings.HasPrefix(contentType, "/") {
		return fmt.Errorf("invalid content type: %s (expected a path such as /page/article)", contentType)
	}
	if strings.ContainsAny(contentType, " \t\n") {
		return fmt.Errorf("content type contains whitespace: %q", contentType)
	}
	return nil
}

// ValidateItemPath validates a repository item path
func ValidateItemPath(path string) error {
	if path == "" {
		return fmt.Errorf("item path cannot be empty")
	}
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("invalid item path: %s (must start with /)", path)
	}

	// Check for invalid segments
	for _, segment := range strings.Split(path, "/") {
		if segment == ".." || segment == "." {
			return fmt.Errorf("item path contains invalid segment: %s", segment)
		}
	}

	return nil
}

// ValidateOutputFormat validates the output format flag
func ValidateOutputFormat(format string) error {
	validFormats := []string{"text", "json", "yaml"}
	if Contains(validFormats, format) {
		return nil
	}
	return fmt.Errorf("invalid output format: %s (must be: text, json, or yaml)", format)
}

// ValidatePageSize validates a page size against the configured options.
// An empty option list accepts any positive size.
func ValidatePageSize(size int, options []int) error {
	if size <= 0 {
		return fmt.Errorf("page size must be positive, got %d", size)
	}
	if len(options) == 0 {
		return nil
	}
	for _, o := range options {
		if o == size {
			return nil
		}
	}
	return fmt.Errorf("invalid page size: %d (must be one of %v)", size, options)
}

// Contains checks if a string is in a slice
func Contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
