package archive

import "strings"

// NormalizePath cleans a POSIX-style entry path relative to an
// archive's root: strips any leading slash, collapses "." and
// redundant "/" separators, and rejects ".." overflow, per spec.md
// §3 "path is a POSIX-style forward-slash path".
func NormalizePath(p string) (string, error) {
	p = strings.TrimPrefix(p, "/")
	parts := strings.Split(p, "/")
	var out []string
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			return "", &IllegalPath{Path: p, Reason: ".. would escape archive root"}
		default:
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return "", &IllegalPath{Path: p, Reason: "empty path"}
	}
	return strings.Join(out, "/"), nil
}

const reservedLabelChars = ":#?&"

// ValidateLabelName enforces the label-set rules of spec.md §3: every
// entry path begins with '@', contains no '/', and avoids the
// reserved characters ':#?&'.
func ValidateLabelName(name string) error {
	if !strings.HasPrefix(name, "@") {
		return &IllegalPath{Path: name, Reason: "label name must begin with '@'"}
	}
	if strings.Contains(name, "/") {
		return &IllegalPath{Path: name, Reason: "label name must not contain '/'"}
	}
	if strings.ContainsAny(name, reservedLabelChars) {
		return &IllegalPath{Path: name, Reason: "label name contains reserved character"}
	}
	return nil
}
