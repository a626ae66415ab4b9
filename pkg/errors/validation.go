package errors

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

const maxProjectIDLen = 128

// Backend ids are 24-character hex ObjectIDs; slugs are accepted for saved
// project lists and self-hosted backends.
var projectIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateProjectID checks an id before it goes into a URL path or an
// artifact key.
func ValidateProjectID(id string) error {
	switch {
	case id == "":
		return New(ErrCodeInvalidProjectID, "project id cannot be empty")
	case len(id) > maxProjectIDLen:
		return New(ErrCodeInvalidProjectID, "project id too long (max %d characters)", maxProjectIDLen)
	case !projectIDRegex.MatchString(id):
		return New(ErrCodeInvalidProjectID, "invalid project id: %q", id)
	}
	return nil
}

// ValidateArtifactName accepts plain file names such as "diagram.svg".
func ValidateArtifactName(name string) error {
	switch {
	case name == "":
		return New(ErrCodeInvalidPath, "artifact name cannot be empty")
	case strings.ContainsAny(name, `/\`):
		return New(ErrCodeInvalidPath, "artifact name cannot contain path separators")
	case strings.HasPrefix(name, "."):
		return New(ErrCodeInvalidPath, "artifact name cannot be a hidden file")
	case strings.IndexFunc(name, unicode.IsControl) >= 0:
		return New(ErrCodeInvalidPath, "artifact name contains invalid characters")
	}
	return nil
}

// ValidateURL accepts absolute http and https URLs with a host, such as
// the backend base URL or an estimation download link.
func ValidateURL(raw string) error {
	if raw == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL has no host")
	}
	return nil
}
