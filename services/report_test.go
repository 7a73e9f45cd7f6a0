package services

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"renovation-quoter/models"
)

func TestReportPrinter(t *testing.T) {
	var buf bytes.Buffer
	q := &models.Quote{
		Tasks: []models.TaskLineItem{{
			Task:          models.RemoveTiles,
			MaterialCost:  100,
			LaborCost:     250,
			EstimatedTime: 5,
			TotalPrice:    483,
			VATRate:       0.2,
			Margin:        0.15,
		}},
		RoomSize:   4,
		TotalPrice: 483,
	}

	NewReportPrinter(&buf).Print(q, DefaultPricing())
	out := buf.String()

	assert.Contains(t, out, "RENOVATION QUOTE")
	assert.Contains(t, out, "4.00 m²")
	assert.Contains(t, out, "Marseille")
	assert.Contains(t, out, "15%")
	assert.Contains(t, out, "remove tiles")
	assert.Contains(t, out, "483.00")
	assert.NotContains(t, out, "No renovation tasks detected")
	// A bytes.Buffer is not a terminal, so no escape sequences are emitted.
	assert.NotContains(t, out, "\x1b[")
}

func TestReportPrinterEmptyQuote(t *testing.T) {
	var buf bytes.Buffer
	NewReportPrinter(&buf).Print(&models.Quote{Tasks: []models.TaskLineItem{}, RoomSize: 5}, DefaultPricing())

	assert.Contains(t, buf.String(), "No renovation tasks detected")
	assert.Contains(t, buf.String(), "0.00")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 20))
	assert.Equal(t, "install ...", truncate("install cabinets", 11))
}
