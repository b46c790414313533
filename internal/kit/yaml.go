package kit

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/cowclash/internal/errs"
)

// kitFile is the on-disk layout:
//
//	kits:
//	  archer:
//	    - type: BOW
//	      enchants: ["ARROW_DAMAGE:2"]
//	    - type: ARROW
//	      count: 64
type kitFile struct {
	Kits map[string][]any `yaml:"kits"`
}

// LoadYAML decodes and builds every kit in r, sorted by name.
func LoadYAML(r io.Reader) ([]Kit, error) {
	var f kitFile
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return []Kit{}, nil
		}
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to parse kit yaml", err)
	}

	names := make([]string, 0, len(f.Kits))
	for name := range f.Kits {
		names = append(names, name)
	}
	sort.Strings(names)

	kits := make([]Kit, 0, len(names))
	for _, name := range names {
		k, err := buildKit(name, f.Kits[name])
		if err != nil {
			return nil, err
		}
		kits = append(kits, k)
	}
	return kits, nil
}

// ParseYAML is LoadYAML over a byte slice.
func ParseYAML(data []byte) ([]Kit, error) {
	return LoadYAML(bytes.NewReader(data))
}

func buildKit(name string, defs []any) (Kit, error) {
	if name == "" {
		return Kit{}, errs.New(errs.ErrKindInvalidInput, "kit name must not be empty")
	}
	k := Kit{Name: name, Items: make([]Item, 0, len(defs))}
	for i, def := range defs {
		b, err := FromRaw(def)
		if err != nil {
			return Kit{}, errs.Wrap(errs.KindOf(err), fmt.Sprintf("kit %q item %d", name, i), err)
		}
		it, err := b.Build()
		if err != nil {
			return Kit{}, errs.Wrap(errs.KindOf(err), fmt.Sprintf("kit %q item %d", name, i), err)
		}
		k.Items = append(k.Items, it)
	}
	return k, nil
}
