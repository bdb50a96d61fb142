package storage

import (
	"mime"
	"path/filepath"
	"strings"
)

var knownTypes = map[string]string{
	".json": "application/json",
	".html": "text/html; charset=utf-8",
	".pdf":  "application/pdf",
	".txt":  "text/plain; charset=utf-8",
}

// DetectContentType returns providedType if set, otherwise a MIME type based
// on the key's extension, falling back to application/octet-stream.
func DetectContentType(providedType, key string) string {
	if providedType != "" {
		return providedType
	}
	ext := strings.ToLower(filepath.Ext(key))
	if ct, ok := knownTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
