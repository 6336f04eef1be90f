package api

import (
	"path"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	tokenPattern     = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)
	identPattern     = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,127}$`)
	maxFileNameBytes = 255
	maxNameRunes     = 200
)

type uploadFields struct {
	FileName     string
	DocumentType string
	UploadID     string
	Size         int
}

// validate returns a client-facing message for the first bad field, or "".
// Whether the document type exists in the catalog is left to the engine.
func (f uploadFields) validate() string {
	name := cleanFileName(f.FileName)
	switch {
	case name == "" || name == "." || name == "/":
		return "file name is required"
	case len(name) > maxFileNameBytes:
		return "file name is too long"
	case !utf8.ValidString(name):
		return "file name must be valid utf-8"
	case f.Size == 0:
		return "file is empty"
	case strings.TrimSpace(f.DocumentType) == "":
		return "document_type is required"
	case !tokenPattern.MatchString(f.DocumentType):
		return "document_type must be a snake_case token"
	}
	if id := strings.TrimSpace(f.UploadID); id != "" && !identPattern.MatchString(id) {
		return "upload_id may only contain letters, digits, '-' and '_'"
	}
	return ""
}

// cleanFileName drops any directory part a browser or client sent.
func cleanFileName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	return path.Base(name)
}

func validProjectID(id string) bool {
	return identPattern.MatchString(id)
}

func validateProjectName(name string) string {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return "name is required"
	case utf8.RuneCountInString(trimmed) > maxNameRunes:
		return "name is too long"
	}
	return ""
}
