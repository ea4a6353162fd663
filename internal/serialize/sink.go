package serialize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/frame"
	"go.uber.org/zap"
)

// Sink receives encoded output when no destination path is given. It is
// the injection point for download-style delivery.
type Sink interface {
	Write(ctx context.Context, name string, data []byte) error
}

// DirSink writes sink output as files under a directory.
type DirSink struct {
	Dir string
}

func (s DirSink) Write(_ context.Context, name string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", s.Dir, err)
	}
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// EmitConfig routes encoded output. Destinations are tried in order:
// Path writes a file, then Download hands the bytes to the sink, and
// with neither set the bytes are only returned.
type EmitConfig struct {
	Options Options
	// Path is the destination file. The format's canonical extension is
	// appended when the name has none.
	Path string
	// Download receives the bytes when Path is empty.
	Download Sink
	// Name is the base name handed to Download. Empty means "data".
	Name string
}

// Emit encodes the frame and delivers it. It returns the encoded bytes
// and the destination they went to, empty when only returned.
func Emit(ctx context.Context, f *frame.Frame, cfg EmitConfig) ([]byte, string, error) {
	enc, err := GetEncoder(cfg.Options.Format)
	if err != nil {
		return nil, "", err
	}
	data, err := enc.Encode(f, cfg.Options)
	if err != nil {
		return nil, "", err
	}

	switch {
	case cfg.Path != "":
		path := EnsureExtension(cfg.Path, enc.Extension())
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, "", fmt.Errorf("writing %s: %w", path, err)
		}
		zap.L().Debug("wrote output file", zap.String("path", path), zap.Int("bytes", len(data)))
		return data, path, nil
	case cfg.Download != nil:
		name := cfg.Name
		if name == "" {
			name = "data"
		}
		name = EnsureExtension(name, enc.Extension())
		if err := cfg.Download.Write(ctx, name, data); err != nil {
			return nil, "", err
		}
		return data, name, nil
	default:
		return data, "", nil
	}
}
