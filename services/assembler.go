package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"renovation-quoter/metrics"
	"renovation-quoter/models"
	"renovation-quoter/utils"
)

// ErrEmptyTranscript is returned for empty or whitespace-only transcripts.
var ErrEmptyTranscript = errors.New("transcript cannot be empty, please provide client details")

// ValidateTranscript rejects input the pipeline cannot quote. Entry points
// call it before Assemble.
func ValidateTranscript(transcript string) error {
	if strings.TrimSpace(transcript) == "" {
		return ErrEmptyTranscript
	}
	return nil
}

// PricingConfig is the operating configuration applied to every line item.
type PricingConfig struct {
	Location   string
	HourlyRate float64
	Margin     float64
}

// DefaultPricing returns Marseille, 50/hour, 15% margin.
func DefaultPricing() PricingConfig {
	return PricingConfig{
		Location:   "Marseille",
		HourlyRate: 50,
		Margin:     0.15,
	}
}

// TaskDetector finds the tasks discussed in a transcript.
type TaskDetector interface {
	Detect(ctx context.Context, transcript string) []models.Task
}

// SizeResolver finds the room size discussed in a transcript.
type SizeResolver interface {
	Resolve(ctx context.Context, transcript string) float64
}

// TaxTable supplies the VAT rate for a location.
type TaxTable interface {
	VATRate(location string) float64
}

// Assembler turns a transcript into a priced Quote.
type Assembler struct {
	detector TaskDetector
	resolver SizeResolver
	composer *Composer
	taxes    TaxTable
	pricing  PricingConfig
	logger   *utils.Logger
}

// NewAssembler wires the pipeline together.
func NewAssembler(detector TaskDetector, resolver SizeResolver, composer *Composer, taxes TaxTable, pricing PricingConfig, logger *utils.Logger) *Assembler {
	return &Assembler{
		detector: detector,
		resolver: resolver,
		composer: composer,
		taxes:    taxes,
		pricing:  pricing,
		logger:   logger,
	}
}

// Pricing returns the configuration the assembler prices with.
func (a *Assembler) Pricing() PricingConfig {
	return a.pricing
}

// Assemble detects tasks and resolves the room size concurrently, then
// prices every task in detection order.
func (a *Assembler) Assemble(ctx context.Context, transcript string) *models.Quote {
	start := time.Now()

	var (
		wg       sync.WaitGroup
		tasks    []models.Task
		roomSize float64
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		tasks = a.detector.Detect(ctx, transcript)
	}()
	go func() {
		defer wg.Done()
		roomSize = a.resolver.Resolve(ctx, transcript)
	}()
	wg.Wait()

	vatRate := a.taxes.VATRate(a.pricing.Location)

	quote := &models.Quote{
		Tasks:    make([]models.TaskLineItem, 0, len(tasks)),
		RoomSize: roomSize,
	}
	for _, task := range tasks {
		item := a.composer.Compose(task, roomSize, a.pricing.HourlyRate, a.pricing.Margin, vatRate)
		quote.Tasks = append(quote.Tasks, item)
		quote.TotalPrice += item.TotalPrice
	}

	metrics.ObserveQuote(quote.TotalPrice)
	a.logger.Info("[assembler] Quote ready: %d task(s), %.2f m², total %.2f (%s, VAT %.0f%%) in %v",
		len(quote.Tasks), roomSize, quote.TotalPrice, a.pricing.Location, vatRate*100,
		time.Since(start).Round(time.Millisecond))
	return quote
}
