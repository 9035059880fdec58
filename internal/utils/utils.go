// Package utils provides utility functions for filename sanitization and UUID generation.
//
// Functions:
//   - SanitizeFilename: Returns a safe filename for storing an upload.
//   - SanitizeName: Returns a safe archive entry name for a person's name.
//   - AllowedExtension: Reports whether an upload name carries an accepted extension.
//   - GenerateUUID: Returns a new UUID string.
package utils

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
	unsafeName     = regexp.MustCompile(`[^a-zA-Z0-9 _\-áéíóöőúüűÁÉÍÓÖŐÚÜŰ]`)
)

// AllowedExtensions is the upload allow-list, shared by template and names files.
var AllowedExtensions = map[string]bool{
	"pdf": true,
	"txt": true,
}

func SanitizeFilename(name string) string {
	base := filepath.Base(name)
	safe := unsafeFilename.ReplaceAllString(base, "_")
	if len(safe) > 100 {
		safe = safe[:100]
	}
	return safe
}

// SanitizeName strips everything except ASCII letters and digits, spaces,
// hyphens, underscores and the Hungarian accented vowels. The result may be
// empty.
func SanitizeName(name string) string {
	return strings.TrimSpace(unsafeName.ReplaceAllString(name, ""))
}

func AllowedExtension(filename string) bool {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return false
	}
	return AllowedExtensions[strings.ToLower(filename[i+1:])]
}

func GenerateUUID() string {
	return uuid.New().String()
}
