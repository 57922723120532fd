package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// Entry describes one instrument to track and the segment it belongs to.
type Entry struct {
	Symbol  string `yaml:"symbol" json:"symbol"`
	Name    string `yaml:"name" json:"name"`
	Country string `yaml:"country" json:"country"`
	Segment string `yaml:"segment" json:"segment"`
}

// Catalog is the fixed list of instruments a full refresh covers,
// together with the descriptions of the segments they map into.
type Catalog struct {
	Segments    map[string]string `yaml:"segments" json:"segments"`
	Instruments []Entry           `yaml:"instruments" json:"instruments"`
}

// Load reads a catalog from path, or the embedded default catalog when
// path is empty.
func Load(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
	}

	var cat Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	if err := cat.validate(); err != nil {
		return nil, err
	}

	return &cat, nil
}

func (c *Catalog) validate() error {
	if len(c.Instruments) == 0 {
		return fmt.Errorf("catalog has no instruments")
	}

	seen := make(map[string]bool, len(c.Instruments))
	for _, e := range c.Instruments {
		if e.Symbol == "" {
			return fmt.Errorf("catalog entry %q has no symbol", e.Name)
		}
		if seen[e.Symbol] {
			return fmt.Errorf("duplicate catalog symbol %q", e.Symbol)
		}
		seen[e.Symbol] = true

		if e.Segment != "" {
			if _, ok := c.Segments[e.Segment]; !ok {
				return fmt.Errorf("catalog entry %q references unknown segment %q", e.Symbol, e.Segment)
			}
		}
	}

	return nil
}

// SegmentDescription returns the description for a segment name.
func (c *Catalog) SegmentDescription(name string) string {
	return c.Segments[name]
}
