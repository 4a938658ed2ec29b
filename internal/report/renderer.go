package report

import (
	"io"
	"time"

	dErrors "agristack/pkg/domain-errors"
)

// DefaultBrand heads every PDF page.
const DefaultBrand = "Agristack | Department of Agriculture"

// Renderer turns a Document into one of the supported formats.
type Renderer struct {
	brand    string
	location *time.Location
	compress bool
}

type Option func(*Renderer)

func WithBrand(brand string) Option {
	return func(r *Renderer) {
		if brand != "" {
			r.brand = brand
		}
	}
}

// WithLocation sets the zone timestamps are displayed in.
func WithLocation(loc *time.Location) Option {
	return func(r *Renderer) {
		if loc != nil {
			r.location = loc
		}
	}
}

// WithCompression toggles PDF stream compression. Tests turn it off to
// inspect page text.
func WithCompression(on bool) Option {
	return func(r *Renderer) { r.compress = on }
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{brand: DefaultBrand, location: time.UTC, compress: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) cells() CellFormatter { return CellFormatter{Location: r.location} }

// Render writes doc to w in format f. An empty document yields a no_data
// error and writes nothing.
func (r *Renderer) Render(w io.Writer, f Format, doc Document) error {
	if len(doc.Records) == 0 {
		return errNoData()
	}
	switch f {
	case FormatCSV:
		return WriteCSV(w, doc.Records)
	case FormatPDF:
		return r.WritePDF(w, doc)
	case FormatXLSX:
		return r.WriteXLSX(w, doc)
	}
	return dErrors.New(dErrors.CodeValidation, "unsupported export format: "+string(f))
}
