package file

import (
	"path/filepath"
	"strings"
)

var videoExtensions = []string{"mp4", "mov", "mkv", "avi", "webm", "m4v"}

// NormalizeExtension lower-cases ext and strips a leading dot.
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

func IsVideoExtension(ext string) bool {
	ext = NormalizeExtension(ext)
	for _, v := range videoExtensions {
		if ext == v {
			return true
		}
	}
	return false
}

func IsVideoFile(filePath string) bool {
	return IsVideoExtension(filepath.Ext(filePath))
}
