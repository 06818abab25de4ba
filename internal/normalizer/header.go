package normalizer

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-audio/wav"
	"github.com/tphakala/audioqa/internal/errors"
	"github.com/tphakala/flac"
)

// InspectHeader reads a WAV or FLAC file's native header directly, without
// invoking the external tool, returning its sample rate, bit depth and
// channel count.
func InspectHeader(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return inspectWAV(path)
	case ".flac":
		return inspectFLAC(path)
	default:
		return Format{}, errors.Newf("no native header decoder for extension %q", filepath.Ext(path)).
			Component("normalizer").
			Category(errors.CategoryFileParsing).
			Context("operation", "inspect_header").
			Context("path", path).
			Build()
	}
}

func inspectWAV(path string) (Format, error) {
	f, err := os.Open(path) //nolint:gosec // path is operator/catalog supplied, not web input
	if err != nil {
		return Format{}, errors.New(err).
			Component("normalizer").
			Category(errors.CategoryFileIO).
			Context("operation", "open_wav").
			Context("path", path).
			Build()
	}
	defer f.Close() //nolint:errcheck // read-only descriptor, nothing to flush

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return Format{}, errors.Newf("not a valid WAV file").
			Component("normalizer").
			Category(errors.CategoryFileParsing).
			Context("operation", "inspect_wav").
			Context("path", path).
			Build()
	}

	return Format{
		SampleRate: int(dec.SampleRate),
		BitDepth:   int(dec.BitDepth),
		Channels:   int(dec.NumChans),
		Codec:      "pcm",
	}, nil
}

func inspectFLAC(path string) (Format, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return Format{}, errors.New(err).
			Component("normalizer").
			Category(errors.CategoryFileParsing).
			Context("operation", "inspect_flac").
			Context("path", path).
			Build()
	}
	defer stream.Close() //nolint:errcheck // read-only descriptor, nothing to flush

	return Format{
		SampleRate: int(stream.Info.SampleRate),
		BitDepth:   int(stream.Info.BitsPerSample),
		Channels:   int(stream.Info.NChannels),
		Codec:      "flac",
	}, nil
}

// parseProbeOutput parses the invoker's "key=value" probe lines into a
// Format, falling back to ext for codec family when no codec_name field is
// present in the probe output.
func parseProbeOutput(stdout, ext string) Format {
	format := Format{Codec: strings.TrimPrefix(strings.ToLower(ext), ".")}

	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "sample_rate":
			if v, err := strconv.Atoi(value); err == nil {
				format.SampleRate = v
			}
		case "bits_per_raw_sample":
			if v, err := strconv.Atoi(value); err == nil {
				format.BitDepth = v
			}
		case "channels":
			if v, err := strconv.Atoi(value); err == nil {
				format.Channels = v
			}
		case "codec_name":
			format.Codec = value
		}
	}
	return format
}
