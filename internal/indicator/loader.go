package indicator

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
)

// LoadDirectory registers every JSON or YAML indicator document in dir and
// returns the names it added, in file-name order.
func LoadDirectory(catalog Catalog, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeCatalogLoadFailed, err, "failed to read indicator directory %s", dir)
	}

	files := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !template.IsDocumentFile(entry.Name()) {
			continue
		}

		files = append(files, entry.Name())
	}

	slices.Sort(files)

	names := make([]string, 0, len(files))

	for _, file := range files {
		tpl, err := template.LoadIndicatorFile(filepath.Join(dir, file))
		if err != nil {
			return names, errors.Wrapf(errors.ErrCodeCatalogLoadFailed, err, "failed to load indicator %s", file)
		}

		if err := catalog.RegisterIndicator(tpl); err != nil {
			return names, errors.Wrapf(errors.ErrCodeCatalogLoadFailed, err, "failed to register indicator %s", file)
		}

		names = append(names, tpl.Name)
	}

	return names, nil
}
