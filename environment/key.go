package environment

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// DepSet is a normalized list of dependency specifiers (requirements.txt
// format, e.g. "requests==2.31.0"). It serves both as the cache equality key
// and as the literal install input.
type DepSet []string

// ResolveDeps normalizes a raw dependency list into a DepSet. Specifiers are
// trimmed but otherwise preserved verbatim. Blank specifiers and embedded
// line breaks are rejected; a line break would smuggle extra entries into
// the generated requirements file.
func ResolveDeps(specs []string) (DepSet, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	deps := make(DepSet, 0, len(specs))
	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			return nil, fmt.Errorf("dependency specifier must not be empty")
		}
		if strings.ContainsAny(spec, "\r\n") {
			return nil, fmt.Errorf("dependency specifier contains a line break: %q", spec)
		}
		deps = append(deps, spec)
	}
	return deps, nil
}

// Equal reports whether two dependency sets contain the same specifiers.
// Order is ignored: installing the same pinned set in a different order
// produces the same environment.
func (d DepSet) Equal(other DepSet) bool {
	if len(d) != len(other) {
		return false
	}
	a := append([]string(nil), d...)
	b := append([]string(nil), other...)
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Empty reports whether the set has no specifiers
func (d DepSet) Empty() bool {
	return len(d) == 0
}

// Requirements renders the set as requirements.txt file content
func (d DepSet) Requirements() string {
	if d.Empty() {
		return ""
	}
	return strings.Join(d, "\n") + "\n"
}

// ValidateName checks a caller-supplied environment name. Names become
// directory names under the environments root, so anything that could
// resolve elsewhere (separators, traversal) or alias another record must be
// rejected before it reaches the filesystem.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("environment name must not be empty")
	}
	if name == "." || name == ".." {
		return fmt.Errorf("invalid environment name: %q", name)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return fmt.Errorf("invalid character %q in environment name: %q", r, name)
		}
	}
	return nil
}

// InterpreterPath returns the path of the Python interpreter inside the
// virtual environment at envPath.
func InterpreterPath(envPath string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(envPath, "Scripts", "python")
	}
	return filepath.Join(envPath, "bin", "python")
}
