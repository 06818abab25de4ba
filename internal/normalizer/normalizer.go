// Package normalizer decides whether an audio asset is already in the
// canonical analysis format and, when it isn't, produces a temporary
// normalized copy via the external tool invoker.
package normalizer

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tphakala/audioqa/internal/conf"
	"github.com/tphakala/audioqa/internal/errors"
	"github.com/tphakala/audioqa/internal/invoker"
	"github.com/tphakala/audioqa/internal/logging"
)

var logger *slog.Logger

func init() {
	logger = logging.ForService("normalizer")
	if logger == nil {
		logger = slog.Default().With("service", "normalizer")
	}
}

// lossyCodecs are codec families the decision rule treats as always
// requiring normalization, regardless of sample rate or bit depth.
var lossyCodecs = map[string]bool{
	"mp3":    true,
	"aac":    true,
	"vorbis": true,
	"opus":   true,
}

var validSampleRates = map[int]bool{
	44100: true,
	48000: true,
	88200: true,
	96000: true,
}

var validBitDepths = map[int]bool{
	16: true,
	24: true,
	32: true,
}

// Format describes the decoded header of an audio asset, whether read
// natively (WAV/FLAC) or probed via the external tool's metadata output.
type Format struct {
	SampleRate int
	BitDepth   int
	Channels   int
	Codec      string // "pcm", "flac", "mp3", "aac", "vorbis", "opus", "dsd", ...
}

// Decision records whether normalization is required and why.
type Decision struct {
	Required bool
	Reason   string
}

// Decide applies the canonical-format decision rules to format. Normalization
// is triggered iff the sample rate is outside {44.1, 48, 88.2, 96} kHz, the
// bit depth is outside {16, 24, 32}, the codec is lossy, the sample rate
// exceeds 96 kHz, or the codec family is DSD.
func Decide(format Format) Decision {
	switch {
	case strings.EqualFold(format.Codec, "dsd"):
		return Decision{Required: true, Reason: "dsd codec family"}
	case lossyCodecs[strings.ToLower(format.Codec)]:
		return Decision{Required: true, Reason: "lossy codec: " + format.Codec}
	case format.SampleRate > 96000:
		return Decision{Required: true, Reason: "sample rate exceeds 96kHz"}
	case !validSampleRates[format.SampleRate]:
		return Decision{Required: true, Reason: "sample rate not in {44.1,48,88.2,96}kHz"}
	case !validBitDepths[format.BitDepth]:
		return Decision{Required: true, Reason: "bit depth not in {16,24,32}"}
	default:
		return Decision{Required: false, Reason: "already canonical"}
	}
}

// Normalizer inspects asset headers and, when required, invokes the external
// tool to produce a normalized copy at the platform's target sample rate and
// bit depth.
type Normalizer struct {
	settings *conf.Settings
	invoker  *invoker.Invoker
	temp     *TempManager
}

// New builds a Normalizer bound to settings, starting its background
// temp-file sweeper.
func New(settings *conf.Settings, inv *invoker.Invoker) *Normalizer {
	n := &Normalizer{
		settings: settings,
		invoker:  inv,
		temp:     NewTempManager(settings.Normalizer.TempDir),
	}
	n.temp.StartSweeper()
	return n
}

// Probe returns path's decoded header, read natively for WAV/FLAC and via
// the external tool's probe metadata for every other container. Callers
// that only need format facts (the Catalog Validator's asset loader, for
// instance) can use this without going through Prepare's normalization
// decision.
func (n *Normalizer) Probe(ctx context.Context, path string) (Format, error) {
	format, err := InspectHeader(path)
	if err == nil {
		return format, nil
	}
	logger.Warn("native header inspection failed, probing via invoker",
		"path", path, "error", err)
	return n.probeViaInvoker(ctx, path)
}

// Prepare inspects path, returning it unchanged when it is already in the
// canonical format, or a path to a normalized temporary copy otherwise. The
// caller must invoke the returned cleanup func once done with the result.
func (n *Normalizer) Prepare(ctx context.Context, path string) (resultPath string, cleanup func(), err error) {
	format, err := n.Probe(ctx, path)
	if err != nil {
		return "", func() {}, err
	}

	decision := Decide(format)
	if !decision.Required {
		return path, func() {}, nil
	}

	logger.Debug("normalizing asset", "path", path, "reason", decision.Reason)

	outPath, err := n.temp.NewPath(filepath.Base(path))
	if err != nil {
		return "", func() {}, err
	}

	if err := n.runNormalize(ctx, path, outPath); err != nil {
		_ = n.temp.Remove(outPath)
		return "", func() {}, err
	}

	return outPath, func() { _ = n.temp.Remove(outPath) }, nil
}

// WithNormalized prepares path and runs f against the canonical-format
// result, guaranteeing the temporary normalized copy (when one was created)
// is deleted on every exit from f, including a panic.
func (n *Normalizer) WithNormalized(ctx context.Context, path string, f func(string) error) error {
	resultPath, _, err := n.Prepare(ctx, path)
	if err != nil {
		return err
	}
	if resultPath == path {
		return f(resultPath)
	}
	return withNormalization(resultPath, f)
}

// runNormalize invokes the external tool to resample/convert path into
// outPath at the platform's canonical sample rate and bit depth.
func (n *Normalizer) runNormalize(ctx context.Context, inPath, outPath string) error {
	sampleRate := n.settings.Normalizer.SampleRate
	bitDepth := n.settings.Normalizer.BitDepth

	args := []string{
		"-y",
		"-i", inPath,
		"-ar", strconv.Itoa(sampleRate),
		"-sample_fmt", sampleFormatFor(bitDepth),
		outPath,
	}

	result, err := n.invoker.Run(ctx, args, n.settings.InvokerTimeout())
	if err != nil {
		return errors.New(err).
			Component("normalizer").
			Category(errors.CategoryNormalization).
			Context("operation", "normalize").
			Context("input_path", inPath).
			Context("output_path", outPath).
			Build()
	}
	_ = result
	return nil
}

// probeViaInvoker falls back to the external tool's probe metadata for
// containers with no locally vendored decoder (compressed lossy formats).
func (n *Normalizer) probeViaInvoker(ctx context.Context, path string) (Format, error) {
	args := []string{"-v", "error", "-show_entries",
		"stream=sample_rate,bits_per_raw_sample,channels,codec_name",
		"-of", "default=noprint_wrappers=1", path}

	result, err := n.invoker.Run(ctx, args, n.settings.InvokerTimeout())
	if err != nil {
		return Format{}, errors.New(err).
			Component("normalizer").
			Category(errors.CategoryNormalization).
			Context("operation", "probe").
			Context("path", path).
			Build()
	}

	return parseProbeOutput(result.Stdout, filepath.Ext(path)), nil
}

func sampleFormatFor(bitDepth int) string {
	switch bitDepth {
	case 16:
		return "s16"
	case 32:
		return "s32"
	default:
		return "s24"
	}
}

