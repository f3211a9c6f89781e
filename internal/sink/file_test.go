package sink

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"catalog/consolidator/internal/config"
	"catalog/consolidator/internal/domain"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDataset() *domain.Dataset {
	return &domain.Dataset{
		RunID:   "run-1",
		Columns: []string{"category_id", "id", "shortDescription"},
		Rows: []domain.Record{
			{"category_id": "976759_976794", "id": "P1", "shortDescription": "Fish & Chips"},
			{"category_id": "976759_976794", "id": "P2", "shortDescription": ""},
		},
	}
}

func newTestSink(t *testing.T, fs afero.Fs, format string) *fileSink {
	t.Helper()
	s, err := NewFileSink(fs, "/out/prepared-set", format)
	require.NoError(t, err)
	file := s.(*fileSink)
	file.now = func() time.Time { return time.Date(2022, 10, 13, 0, 0, 0, 0, time.UTC) }
	return file
}

func TestFileSinkJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newTestSink(t, fs, config.FormatJSON)

	require.NoError(t, s.Write(context.Background(), testDataset()))

	data, err := afero.ReadFile(fs, "/out/prepared-set/data.json")
	require.NoError(t, err)
	assert.Contains(t, string(data), "Fish & Chips")

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "P2", rows[1]["id"])

	raw, err := afero.ReadFile(fs, "/out/prepared-set/dataset_info.json")
	require.NoError(t, err)

	var info DatasetInfo
	require.NoError(t, json.Unmarshal(raw, &info))
	assert.Equal(t, DatasetInfo{
		Features:  []string{"category_id", "id", "shortDescription"},
		NumRows:   2,
		DataFile:  DataFileJSON,
		RunID:     "run-1",
		CreatedAt: time.Date(2022, 10, 13, 0, 0, 0, 0, time.UTC),
	}, info)
}

func TestFileSinkJSONL(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newTestSink(t, fs, config.FormatJSONL)

	require.NoError(t, s.Write(context.Background(), testDataset()))

	data, err := afero.ReadFile(fs, "/out/prepared-set/data.jsonl")
	require.NoError(t, err)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	var lines int
	for scanner.Scan() {
		var row map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &row))
		assert.Len(t, row, 3)
		lines++
	}
	assert.Equal(t, 2, lines)
}

func TestFileSinkEmptyDataset(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newTestSink(t, fs, config.FormatJSON)

	require.NoError(t, s.Write(context.Background(), &domain.Dataset{RunID: "run-2"}))

	data, err := afero.ReadFile(fs, "/out/prepared-set/data.json")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestNewFileSinkRejectsUnknownFormat(t *testing.T) {
	_, err := NewFileSink(afero.NewMemMapFs(), "/out", "csv")
	assert.Error(t, err)
}
