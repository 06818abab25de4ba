// conf/defaults.go default values for settings
package conf

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/spf13/viper"
)

// setDefaultConfig sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "audioqa")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/audioqa.log")
	viper.SetDefault("main.log.rotation", string(RotationDaily))
	viper.SetDefault("main.log.maxsize", int64(10*1024*1024))

	viper.SetDefault("invoker.commandpath", "ffmpeg")
	viper.SetDefault("invoker.timeout", "5m")
	viper.SetDefault("invoker.maxargs", 64)

	viper.SetDefault("normalizer.samplerate", NormalizedSampleRate)
	viper.SetDefault("normalizer.bitdepth", NormalizedBitDepth)
	viper.SetDefault("normalizer.tempdir", "")

	viper.SetDefault("analyzer.enabled", []string{})
	viper.SetDefault("analyzer.subgenreheuristicspath", SubgenreHeuristicsFile)
	viper.SetDefault("analyzer.clubstressbands", []float64{30, 60, 120})

	viper.SetDefault("conflict.rulespath", "")

	viper.SetDefault("queue.workers", defaultWorkerCount())
	viper.SetDefault("queue.retrybasedelay", "2s")
	viper.SetDefault("queue.retrymaxdelay", "2m")
	viper.SetDefault("queue.retrymaxattempts", 5)
	viper.SetDefault("queue.queuecapacity", 0)

	viper.SetDefault("events.buffersize", 10000)
	viper.SetDefault("events.workers", 4)
	viper.SetDefault("events.mqtt.enabled", false)
	viper.SetDefault("events.mqtt.prefix", "audioqa")

	viper.SetDefault("delivery.platformcontractspath", PlatformContractTableFile)
	viper.SetDefault("delivery.uploadtimeout", "10m")
	viper.SetDefault("delivery.maxconcurrentuploads", 4)

	viper.SetDefault("catalog.samplefraction", 1.0)
	viper.SetDefault("catalog.parallel", defaultWorkerCount())

	viper.SetDefault("notification.enabled", false)
	viper.SetDefault("notification.urls", []string{})

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.dsn", "")

	viper.SetDefault("webserver.enabled", false)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.autotls", false)
}

// defaultWorkerCount picks a conservative worker pool size: half the
// logical CPU count, clamped to [1, 8], halved again inside a container
// where cgroup CPU limits commonly understate availability to gopsutil.
func defaultWorkerCount() int {
	count, err := cpu.Counts(true)
	if err != nil || count <= 0 {
		count = runtime.NumCPU()
	}

	workers := count / 2
	if workers < 1 {
		workers = 1
	}
	if RunningInContainer() && workers > 1 {
		workers /= 2
		if workers < 1 {
			workers = 1
		}
	}
	if workers > 8 {
		workers = 8
	}
	return workers
}

// validateSettings applies sane-bound clamping to settings loaded from disk
// or environment, logging nothing itself — callers decide whether a clamp
// is worth surfacing.
func validateSettings(settings *Settings) error {
	if settings.Queue.Workers < 1 {
		settings.Queue.Workers = 1
	}
	if settings.Queue.RetryMaxAttempts < 0 {
		settings.Queue.RetryMaxAttempts = 0
	}
	if settings.Normalizer.SampleRate <= 0 {
		settings.Normalizer.SampleRate = NormalizedSampleRate
	}
	if settings.Normalizer.BitDepth <= 0 {
		settings.Normalizer.BitDepth = NormalizedBitDepth
	}
	if settings.Catalog.SampleFraction <= 0 || settings.Catalog.SampleFraction > 1 {
		settings.Catalog.SampleFraction = 1.0
	}
	if settings.Catalog.Parallel < 1 {
		settings.Catalog.Parallel = 1
	}
	if settings.Invoker.MaxArgs <= 0 {
		return fmt.Errorf("invoker.maxargs must be positive, got %d", settings.Invoker.MaxArgs)
	}
	return nil
}
