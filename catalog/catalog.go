// Package catalog holds the pricing lookup tables: material cost and base
// labor hours per task, and VAT rate per location.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"renovation-quoter/models"
	"renovation-quoter/utils"
)

// DefaultVATRate applies to locations missing from the VAT table.
const DefaultVATRate = 0.20

//go:embed defaults.yaml
var defaultTables []byte

type materialRecord struct {
	Cost float64 `koanf:"cost"`
}

// Catalog answers pricing lookups. Missing entries resolve to zero (or
// DefaultVATRate for locations); lookups never fail.
type Catalog struct {
	materials  map[models.Task]float64
	laborHours map[models.Task]float64
	vatRates   map[string]float64
}

// New builds a Catalog from in-memory tables. Location keys are matched
// case-insensitively.
func New(materials, laborHours map[models.Task]float64, vatRates map[string]float64) *Catalog {
	c := &Catalog{
		materials:  make(map[models.Task]float64, len(materials)),
		laborHours: make(map[models.Task]float64, len(laborHours)),
		vatRates:   make(map[string]float64, len(vatRates)),
	}
	for t, v := range materials {
		c.materials[t] = v
	}
	for t, v := range laborHours {
		c.laborHours[t] = v
	}
	for loc, v := range vatRates {
		c.vatRates[normaliseLocation(loc)] = v
	}
	return c
}

// Default returns the catalog built from the embedded tables.
func Default() *Catalog {
	c, err := Load("", utils.NewNopLogger())
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded defaults are invalid: %v", err))
	}
	return c
}

// Load reads the embedded default tables and, when path is non-empty,
// merges the YAML or JSON file at path on top of them. Entries naming
// unknown tasks are skipped.
func Load(path string, logger *utils.Logger) (*Catalog, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(defaultTables), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("catalog: load defaults: %w", err)
	}

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("catalog: read %q: %w", path, err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("catalog: parse %q: %w", path, err)
		}
		logger.Info("[catalog] Loaded overrides from %s", path)
	}

	var rawMaterials map[string]materialRecord
	if err := k.Unmarshal("materials", &rawMaterials); err != nil {
		return nil, fmt.Errorf("catalog: decode materials: %w", err)
	}
	var rawHours map[string]float64
	if err := k.Unmarshal("labor_hours", &rawHours); err != nil {
		return nil, fmt.Errorf("catalog: decode labor_hours: %w", err)
	}
	var rawVAT map[string]float64
	if err := k.Unmarshal("vat_rates", &rawVAT); err != nil {
		return nil, fmt.Errorf("catalog: decode vat_rates: %w", err)
	}

	materials := make(map[models.Task]float64, len(rawMaterials))
	for name, rec := range rawMaterials {
		task, err := models.ParseTask(name)
		if err != nil {
			logger.Warn("[catalog] Skipping material entry: %v", err)
			continue
		}
		materials[task] = rec.Cost
	}

	hours := make(map[models.Task]float64, len(rawHours))
	for name, h := range rawHours {
		task, err := models.ParseTask(name)
		if err != nil {
			logger.Warn("[catalog] Skipping labor entry: %v", err)
			continue
		}
		hours[task] = h
	}

	return New(materials, hours, rawVAT), nil
}

// MaterialCost returns the base material cost of task, or 0 when unknown.
func (c *Catalog) MaterialCost(task models.Task) float64 {
	return c.materials[task]
}

// BaseLaborHours returns the labor hours of task for the reference room,
// or 0 when unknown.
func (c *Catalog) BaseLaborHours(task models.Task) float64 {
	return c.laborHours[task]
}

// VATRate returns the tax fraction for location, or DefaultVATRate.
func (c *Catalog) VATRate(location string) float64 {
	if rate, ok := c.vatRates[normaliseLocation(location)]; ok {
		return rate
	}
	return DefaultVATRate
}

// Locations lists the locations with an explicit VAT rate, sorted.
func (c *Catalog) Locations() []string {
	locs := make([]string, 0, len(c.vatRates))
	for loc := range c.vatRates {
		locs = append(locs, loc)
	}
	sort.Strings(locs)
	return locs
}

func normaliseLocation(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
