package config

import (
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

type moduleError struct{ msg string }

func (e *moduleError) Error() string { return e.msg }

// FindModule walks up from startDir to the nearest go.mod and returns its
// directory and module path.
func FindModule(startDir string) (modRoot string, modPath string, err error) {
	dir := startDir
	for {
		gomod := filepath.Join(dir, "go.mod")
		if fileExists(gomod) {
			b, rerr := os.ReadFile(gomod)
			if rerr != nil {
				return "", "", rerr
			}
			mod := modfile.ModulePath(b)
			if mod == "" {
				return "", "", &moduleError{msg: "go.mod has no module path at " + filepath.ToSlash(gomod)}
			}
			return dir, mod, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", "", &moduleError{msg: "could not find go.mod starting from " + filepath.ToSlash(startDir)}
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
