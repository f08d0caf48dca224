package model

import (
	"path"
	"strings"
)

// Remap converts a repository-relative path into a path relative to the
// production root: the source prefix is stripped once from the front and the
// remainder is re-rooted under the destination subfolder. The result always
// uses forward slashes.
func Remap(repoPath, sourcePrefix, destSubfolder string) string {
	rel := strings.TrimPrefix(repoPath, sourcePrefix)
	return path.Join(destSubfolder, rel)
}

// IsSafePath reports whether a repository path is relative, non-empty and
// free of ".." segments and NUL bytes, so joining it under a root directory
// can never escape that root.
func IsSafePath(p string) bool {
	if p == "" || strings.HasPrefix(p, "/") || strings.ContainsRune(p, 0) || strings.Contains(p, "\\") {
		return false
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return false
		}
	}
	return true
}
