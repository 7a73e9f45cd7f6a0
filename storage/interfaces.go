package storage

import (
	"errors"

	"renovation-quoter/models"
)

// QuoteWriter is the interface any quote sink must satisfy.
type QuoteWriter interface {
	Write(quote *models.Quote) error
	Close() error
}

// MultiWriter fans a quote out to several sinks. Every sink is attempted;
// the errors of those that fail are joined.
type MultiWriter []QuoteWriter

func (m MultiWriter) Write(quote *models.Quote) error {
	var errs []error
	for _, w := range m {
		if err := w.Write(quote); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiWriter) Close() error {
	var errs []error
	for _, w := range m {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
