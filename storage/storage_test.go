package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renovation-quoter/models"
)

func sampleQuote() *models.Quote {
	return &models.Quote{
		Tasks: []models.TaskLineItem{
			{Task: models.RemoveTiles, MaterialCost: 100, LaborCost: 250, EstimatedTime: 5, TotalPrice: 483, VATRate: 0.2, Margin: 0.15},
			{Task: models.InstallMirror, MaterialCost: 120, TotalPrice: 165.6, VATRate: 0.2, Margin: 0.15},
		},
		RoomSize:   4,
		TotalPrice: 648.6,
	}
}

func TestJSONWriterCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out", "quote.json")

	w, err := NewJSONWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleQuote()))
	require.NoError(t, w.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, 4.0, doc["room_size"])
	assert.Equal(t, 648.6, doc["total_price"])

	tasks := doc["tasks"].([]interface{})
	require.Len(t, tasks, 2)
	first := tasks[0].(map[string]interface{})
	assert.Equal(t, "remove tiles", first["task"])
	for _, key := range []string{"material_cost", "labor_cost", "estimated_time", "total_price", "vat_rate", "margin"} {
		assert.Contains(t, first, key)
	}

	assert.True(t, strings.Contains(string(raw), "\n    \"tasks\""), "4-space indentation")
}

func TestJSONWriterReplacesPreviousQuote(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quote.json")
	w, err := NewJSONWriter(path)
	require.NoError(t, err)

	require.NoError(t, w.Write(sampleQuote()))
	require.NoError(t, w.Write(&models.Quote{Tasks: []models.TaskLineItem{}, RoomSize: 5}))

	var q models.Quote
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &q))
	assert.Empty(t, q.Tasks)
	assert.Equal(t, 5.0, q.RoomSize)
}

func TestJSONWriterDefaultPath(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	w, err := NewJSONWriter("")
	require.NoError(t, err)
	assert.Equal(t, DefaultOutputPath, w.Path())
	assert.DirExists(t, filepath.Join(dir, "output"))
}

type recordingWriter struct {
	writes int
	err    error
	closed bool
}

func (r *recordingWriter) Write(*models.Quote) error { r.writes++; return r.err }
func (r *recordingWriter) Close() error              { r.closed = true; return nil }

func TestMultiWriterAttemptsEverySink(t *testing.T) {
	boom := errors.New("disk full")
	a, b := &recordingWriter{err: boom}, &recordingWriter{}

	mw := MultiWriter{a, b}
	err := mw.Write(sampleQuote())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, a.writes)
	assert.Equal(t, 1, b.writes)

	require.NoError(t, mw.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestLineItemInsert(t *testing.T) {
	id := uuid.New()
	q := sampleQuote()

	query, args := lineItemInsert(id, q.Tasks)

	assert.Contains(t, query, "($1,$2,$3,$4,$5,$6,$7,$8,$9),($10,$11,$12,$13,$14,$15,$16,$17,$18)")
	require.Len(t, args, 18)
	assert.Equal(t, id, args[0])
	assert.Equal(t, 0, args[1])
	assert.Equal(t, "remove tiles", args[2])
	assert.Equal(t, 483.0, args[6])
	assert.Equal(t, 1, args[10])
	assert.Equal(t, "install mirror", args[11])
}
