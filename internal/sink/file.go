package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"catalog/consolidator/internal/config"
	"catalog/consolidator/internal/domain"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	DataFileJSON  = "data.json"
	DataFileJSONL = "data.jsonl"
	InfoFile      = "dataset_info.json"
)

// DatasetInfo describes a written dataset directory.
type DatasetInfo struct {
	Features  []string  `json:"features"`
	NumRows   int       `json:"num_rows"`
	DataFile  string    `json:"data_file"`
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
}

type fileSink struct {
	fs     afero.Fs
	dir    string
	format string
	now    func() time.Time
}

// NewFileSink writes the dataset rows and a dataset_info.json into dir.
func NewFileSink(fs afero.Fs, dir, format string) (Sink, error) {
	if format != config.FormatJSON && format != config.FormatJSONL {
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
	return &fileSink{
		fs:     fs,
		dir:    dir,
		format: format,
		now:    time.Now,
	}, nil
}

func (s *fileSink) Name() string {
	return config.SinkFile
}

func (s *fileSink) Write(ctx context.Context, dataset *domain.Dataset) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", s.dir, err)
	}

	dataFile := DataFileJSON
	if s.format == config.FormatJSONL {
		dataFile = DataFileJSONL
	}

	data, err := encodeRows(dataset.Rows, s.format)
	if err != nil {
		return err
	}

	dataPath := filepath.Join(s.dir, dataFile)
	if err := afero.WriteFile(s.fs, dataPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dataPath, err)
	}

	info, err := json.MarshalIndent(DatasetInfo{
		Features:  dataset.Columns,
		NumRows:   len(dataset.Rows),
		DataFile:  dataFile,
		RunID:     dataset.RunID,
		CreatedAt: s.now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode dataset info: %w", err)
	}

	infoPath := filepath.Join(s.dir, InfoFile)
	if err := afero.WriteFile(s.fs, infoPath, info, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", infoPath, err)
	}

	log.Infof("Writing output dataset to %s", s.dir)
	return nil
}

func encodeRows(rows []domain.Record, format string) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)

	if format == config.FormatJSONL {
		for _, row := range rows {
			if err := encoder.Encode(row); err != nil {
				return nil, fmt.Errorf("failed to encode record %v: %w", row.ID(), err)
			}
		}
		return buf.Bytes(), nil
	}

	if rows == nil {
		rows = []domain.Record{}
	}
	if err := encoder.Encode(rows); err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}
	return buf.Bytes(), nil
}
