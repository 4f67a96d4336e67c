// Package samples embeds problematic post bodies used by `postclean demo`
// and by the tests.
package samples

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed data/*.html
var files embed.FS

// Sample is one embedded document.
type Sample struct {
	Name    string
	Content string
}

// All returns every sample in file order.
func All() ([]Sample, error) {
	entries, err := fs.ReadDir(files, "data")
	if err != nil {
		return nil, fmt.Errorf("reading samples: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	out := make([]Sample, 0, len(entries))
	for _, e := range entries {
		data, err := files.ReadFile(path.Join("data", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading sample %s: %w", e.Name(), err)
		}
		out = append(out, Sample{Name: displayName(e.Name()), Content: string(data)})
	}
	return out, nil
}

// Get returns the sample with the given display name.
func Get(name string) (Sample, bool) {
	all, err := All()
	if err != nil {
		return Sample{}, false
	}
	for _, s := range all {
		if s.Name == name {
			return s, true
		}
	}
	return Sample{}, false
}

// displayName turns "01_wordpress_export.html" into "wordpress export".
func displayName(file string) string {
	name := strings.TrimSuffix(file, path.Ext(file))
	if i := strings.IndexByte(name, '_'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ReplaceAll(name, "_", " ")
}
