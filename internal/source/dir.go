package source

import (
	"context"
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

type dirSource struct {
	fs      afero.Fs
	dir     string
	pattern string
}

// NewDirSource lists the regular files of dir whose names match pattern.
func NewDirSource(fs afero.Fs, dir, pattern string) Source {
	if pattern == "" {
		pattern = "*"
	}
	return &dirSource{
		fs:      fs,
		dir:     dir,
		pattern: pattern,
	}
}

func (s *dirSource) Units(ctx context.Context) ([]Unit, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list input directory %s: %w", s.dir, err)
	}

	units := make([]Unit, 0, len(entries))
	for _, entry := range entries {
		if !entry.Mode().IsRegular() {
			continue
		}
		matched, err := filepath.Match(s.pattern, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("invalid input pattern %q: %w", s.pattern, err)
		}
		if !matched {
			log.Debugf("Skipping %s", entry.Name())
			continue
		}
		units = append(units, Unit{Name: filepath.Join(s.dir, entry.Name()), source: s})
	}

	log.Infof("There are %d product files to parse in %s", len(units), s.dir)
	return units, nil
}

func (s *dirSource) Load(ctx context.Context, name string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Debugf("Reading %s", name)
	file, err := s.fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer file.Close()

	tree, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return tree, nil
}
