// Package platform holds the per-platform delivery contract table: the
// static facts the Delivery Orchestrator and Catalog Validator both need
// about a target platform's upload requirements, read-only.
package platform

// Contract describes one delivery target's technical and metadata
// requirements.
type Contract struct {
	Name              string
	AllowedFormats    []string
	MinBitDepth       int
	MinSampleRate     int
	MaxFileSize       int64 // bytes
	LoudnessTarget    float64
	LoudnessTolerance float64
	RequiredFields    []string
	UploadEndpoint    string
	AuthMethod        string // "oauth2", "api_key", "sftp_key", "ftp_password"
	BatchSize         int
}

// gb makes the file-size limits below readable as multiples of a gigabyte.
const gb = 1 << 30

// Contracts is the platform contract table. Loudness targets mirror
// analyzer.PlatformTargets; everything else (formats, bit depth, sample
// rate, file size, required metadata, endpoint, auth, batch size) is new
// to this table, since PlatformTargets only ever needed the loudness
// target and normalization type.
var Contracts = map[string]Contract{
	"spotify": {
		Name:              "spotify",
		AllowedFormats:    []string{"wav", "flac"},
		MinBitDepth:       16,
		MinSampleRate:     44100,
		MaxFileSize:       4 * gb,
		LoudnessTarget:    -14,
		LoudnessTolerance: 1,
		RequiredFields:    []string{"title", "artist", "isrc", "release_date"},
		UploadEndpoint:    "https://upload.spotify.example/v1/tracks",
		AuthMethod:        "oauth2",
		BatchSize:         50,
	},
	"apple_music": {
		Name:              "apple_music",
		AllowedFormats:    []string{"wav", "flac", "aac"},
		MinBitDepth:       16,
		MinSampleRate:     44100,
		MaxFileSize:       4 * gb,
		LoudnessTarget:    -16,
		LoudnessTolerance: 1,
		RequiredFields:    []string{"title", "artist", "album", "isrc"},
		UploadEndpoint:    "https://upload.applemusic.example/v1/assets",
		AuthMethod:        "oauth2",
		BatchSize:         25,
	},
	"youtube": {
		Name:              "youtube",
		AllowedFormats:    []string{"wav", "flac", "aac", "vorbis"},
		MinBitDepth:       16,
		MinSampleRate:     44100,
		MaxFileSize:       256 * gb,
		LoudnessTarget:    -14,
		LoudnessTolerance: 1,
		RequiredFields:    []string{"title", "artist"},
		UploadEndpoint:    "https://upload.youtube.example/v3/videos",
		AuthMethod:        "oauth2",
		BatchSize:         10,
	},
	"tidal": {
		Name:              "tidal",
		AllowedFormats:    []string{"wav", "flac"},
		MinBitDepth:       16,
		MinSampleRate:     44100,
		MaxFileSize:       2 * gb,
		LoudnessTarget:    -14,
		LoudnessTolerance: 1,
		RequiredFields:    []string{"title", "artist", "isrc", "release_date"},
		UploadEndpoint:    "https://upload.tidal.example/v1/tracks",
		AuthMethod:        "api_key",
		BatchSize:         50,
	},
	"amazon_music": {
		Name:              "amazon_music",
		AllowedFormats:    []string{"wav", "flac"},
		MinBitDepth:       16,
		MinSampleRate:     44100,
		MaxFileSize:       2 * gb,
		LoudnessTarget:    -14,
		LoudnessTolerance: 1,
		RequiredFields:    []string{"title", "artist", "isrc"},
		UploadEndpoint:    "https://upload.amazonmusic.example/v1/tracks",
		AuthMethod:        "api_key",
		BatchSize:         50,
	},
}

// Lookup returns the contract for name, or false if name is not a known
// delivery platform.
func Lookup(name string) (Contract, bool) {
	c, ok := Contracts[name]
	return c, ok
}

// AllowsFormat reports whether format is in the platform's allowed list.
func (c Contract) AllowsFormat(format string) bool {
	for _, f := range c.AllowedFormats {
		if f == format {
			return true
		}
	}
	return false
}

