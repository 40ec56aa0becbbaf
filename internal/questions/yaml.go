package questions

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Sets []Set `yaml:"sets"`
}

// LoadFile reads a YAML catalog. Sets without an id get a random one.
func LoadFile(path string) ([]Set, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Decode(file)
}

func Decode(r io.Reader) ([]Set, error) {
	var catalog catalogFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&catalog); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse question catalog: %w", err)
	}
	seen := make(map[string]struct{}, len(catalog.Sets))
	for i := range catalog.Sets {
		if catalog.Sets[i].ID == "" {
			catalog.Sets[i].ID = uuid.NewString()
		}
		if err := catalog.Sets[i].Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[catalog.Sets[i].ID]; dup {
			return nil, fmt.Errorf("%w: duplicate set id %s", ErrInvalidSet, catalog.Sets[i].ID)
		}
		seen[catalog.Sets[i].ID] = struct{}{}
	}
	return catalog.Sets, nil
}
