package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/tphakala/audioqa/internal/errors"
	"github.com/tphakala/audioqa/internal/model"
	"github.com/tphakala/audioqa/internal/normalizer"
)

// loadAsset builds the AudioAsset the analyzer suite needs from path,
// probing its header via norm (native for WAV/FLAC, invoker fallback
// otherwise) rather than running Normalizer.Prepare: the validator only
// ever reads a catalog file, it never needs a normalized copy of it.
func loadAsset(ctx context.Context, norm *normalizer.Normalizer, path string) (model.AudioAsset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.AudioAsset{}, errors.New(err).
			Component("catalog").Category(errors.CategoryFileIO).
			Context("path", path).Build()
	}

	format, err := norm.Probe(ctx, path)
	if err != nil {
		return model.AudioAsset{}, err
	}

	return model.AudioAsset{
		Path:       path,
		Format:     strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		SampleRate: format.SampleRate,
		BitDepth:   format.BitDepth,
		Channels:   format.Channels,
		FileSize:   info.Size(),
	}, nil
}
