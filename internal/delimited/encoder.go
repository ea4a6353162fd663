package delimited

import (
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/frame"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/serialize"
)

type encoder struct {
	sep rune
	ext string
}

func (e encoder) Encode(f *frame.Frame, opts serialize.Options) ([]byte, error) {
	sep := opts.Separator
	if sep == 0 {
		sep = e.sep
	}
	return Marshal(f, sep)
}

func (e encoder) Extension() string {
	return e.ext
}

func init() {
	serialize.RegisterEncoder(serialize.FormatCSV, encoder{sep: ',', ext: ".csv"})
	serialize.RegisterEncoder(serialize.FormatTSV, encoder{sep: '\t', ext: ".tsv"})
}
