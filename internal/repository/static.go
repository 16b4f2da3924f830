package repository

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/thebandproject/bandsite/internal/model"
)

//go:embed shows.yaml
var bundledShows []byte

type showFile struct {
	Shows []model.Show `yaml:"shows"`
}

// BundledShows returns the static dataset compiled into the binary.
func BundledShows() ([]model.Show, error) {
	return decodeShows(bundledShows)
}

// LoadStaticShows reads a dataset from path.  The file is YAML; JSON files
// work too since yaml.v3 reads JSON documents.  An empty path yields the
// bundled dataset.
func LoadStaticShows(path string) ([]model.Show, error) {
	if path == "" {
		return BundledShows()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	shows, err := decodeShows(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return shows, nil
}

func decodeShows(raw []byte) ([]model.Show, error) {
	var f showFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode shows: %w", err)
	}
	for i, s := range f.Shows {
		if s.ID == "" {
			return nil, fmt.Errorf("decode shows: entry %d has no id", i)
		}
	}
	return f.Shows, nil
}
// UpcomingOnly keeps the shows flagged isUpcoming, preserving order.
func UpcomingOnly(shows []model.Show) []model.Show {
	out := make([]model.Show, 0, len(shows))
	for _, s := range shows {
		if s.IsUpcoming {
			out = append(out, s)
		}
	}
	return out
}
