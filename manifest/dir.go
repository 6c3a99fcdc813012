package manifest

import (
	"errors"
	"io/fs"
	"path"
	"strings"
)

// ReadAll returns every manifest below Root in fsys, keyed by contract
// identity, each with its entries in file order. A missing Root yields an
// empty map.
func ReadAll(fsys fs.FS) (map[string][]string, error) {
	out := map[string][]string{}

	err := fs.WalkDir(fsys, Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == Root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") || strings.Contains(d.Name(), ".tmp-") {
			return nil
		}

		f, err := fsys.Open(p)
		if err != nil {
			return err
		}
		entries, err := ParseOrdered(f)
		_ = f.Close()
		if err != nil {
			return err
		}
		contract := strings.TrimPrefix(p, Root+"/")
		out[path.Clean(contract)] = entries
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
