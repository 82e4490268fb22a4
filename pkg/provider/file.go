package provider

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	// FileScheme is the scheme of plain paths
	FileScheme = "file"

	// Stdin is the location that reads standard input
	Stdin = "-"
)

func init() {
	Register(FileScheme, func(ctx context.Context) (Provider, error) {
		return &FileProvider{Stdin: os.Stdin}, nil
	})
}

// 📂 FileProvider opens local files, and standard input for "-"
type FileProvider struct {
	Stdin io.Reader
}

func (p *FileProvider) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if location == Stdin {
		if p.Stdin == nil {
			return nil, errors.New("no standard input available")
		}
		return io.NopCloser(p.Stdin), nil
	}

	path := trimScheme(location)
	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("opening file")

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("opening source file: %w", err)
	}
	return f, nil
}

func (p *FileProvider) Describe(location string) string {
	if location == Stdin {
		return "<stdin>"
	}
	return trimScheme(location)
}

func trimScheme(location string) string {
	const prefix = FileScheme + "://"
	if len(location) > len(prefix) && location[:len(prefix)] == prefix {
		return location[len(prefix):]
	}
	return location
}
