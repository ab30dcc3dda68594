package prompt

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed template/*.txt
var templates embed.FS

// Set holds the instruction payloads handed to each worker's model.
type Set struct {
	byName map[string]string
}

// Load reads every embedded template. Names are file names without extension.
func Load() (Set, error) {
	entries, err := fs.ReadDir(templates, "template")
	if err != nil {
		return Set{}, err
	}

	set := Set{byName: make(map[string]string, len(entries))}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".txt" {
			continue
		}
		raw, err := templates.ReadFile(path.Join("template", e.Name()))
		if err != nil {
			return Set{}, err
		}
		set.byName[strings.TrimSuffix(e.Name(), ".txt")] = strings.TrimSpace(string(raw))
	}
	return set, nil
}

func (s Set) Lookup(name string) (string, bool) {
	v, ok := s.byName[strings.TrimSpace(name)]
	return v, ok
}

func (s Set) Names() []string {
	out := make([]string, 0, len(s.byName))
	for name := range s.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
