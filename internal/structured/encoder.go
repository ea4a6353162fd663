package structured

import (
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/frame"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/serialize"
)

type encoder struct{}

func (encoder) Encode(f *frame.Frame, opts serialize.Options) ([]byte, error) {
	layout, err := ParseLayout(opts.Layout)
	if err != nil {
		return nil, err
	}
	return Marshal(f, layout)
}

func (encoder) Extension() string {
	return ".json"
}

func init() {
	serialize.RegisterEncoder(serialize.FormatJSON, encoder{})
}
