package manifest

import (
	"fmt"
	"io/fs"
	"sort"

	"github.com/samber/lo"
)

// Scan walks fsys for geometry files under assets/<ns>/models and returns
// their ids, sorted and de-duplicated. A model authored as both JSON and
// OBJ appears once.
func Scan(fsys fs.FS) ([]string, error) {
	var ids []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if id, ok := idFromPath(p); ok {
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan models: %w", err)
	}
	ids = lo.Uniq(ids)
	sort.Strings(ids)
	return ids, nil
}
