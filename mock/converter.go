package mock

import "github.com/fwojciec/repodocs"

var _ repodocs.Converter = (*Converter)(nil)

// Converter is a mock implementation of repodocs.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
