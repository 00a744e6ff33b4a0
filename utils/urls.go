package utils

import (
	"path"
	"path/filepath"
	"strings"
)

// PublicUploadURL Convert a path stored relative to the upload root into the
// public URL it is served from. Older rows may hold an absolute path that
// contains the upload directory; those are normalized to the relative part.
func PublicUploadURL(uploadDir, storedPath string) string {
	s := filepath.ToSlash(storedPath)
	base := path.Clean(filepath.ToSlash(uploadDir))

	if strings.HasPrefix(s, base+"/") {
		s = strings.TrimPrefix(s, base+"/")
	} else if i := strings.Index(s, "/"+base+"/"); i >= 0 {
		s = s[i+len(base)+2:]
	}

	return "/uploads/" + s
}
