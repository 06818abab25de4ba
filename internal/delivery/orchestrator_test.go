package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/tphakala/audioqa/internal/events"
	"github.com/tphakala/audioqa/internal/model"
	"github.com/tphakala/audioqa/internal/platform"
	"github.com/tphakala/audioqa/internal/queue"
)

func floatPtr(v float64) *float64 { return &v }

func newTestOrchestrator(t *testing.T, uploaders map[string]Uploader) (*Orchestrator, *queue.Engine, func()) {
	t.Helper()
	bus := events.NewJobBus()
	q := queue.New(bus, queue.WithWorkerCount(2))
	q.RegisterHandler(model.JobTypeProcess, queue.HandlerFunc(func(ctx context.Context, job *model.Job, progress queue.ProgressFunc, cancelled queue.CancelledFunc) (any, error) {
		return "processed", nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)
	o := New(q, uploaders)
	stop := func() {
		cancel()
		_ = q.Stop(time.Second)
	}
	return o, q, stop
}

func TestOrchestratorDeliversWhenAllPlatformsSucceed(t *testing.T) {
	fake := &FakeUploader{}
	o, _, stop := newTestOrchestrator(t, map[string]Uploader{
		"oauth2":  fake,
		"api_key": fake,
	})
	defer stop()

	d := &model.Delivery{
		ID:        "del-1",
		Platforms: []string{"spotify", "tidal"},
		Metadata: map[string]any{
			"title": "Track", "artist": "Artist", "isrc": "US1234567890", "release_date": "2026-01-01",
		},
		Assets: []model.AudioAsset{
			{Path: "/tmp/track.flac", Format: "flac", BitDepth: 24, SampleRate: 48000, FileSize: 1 << 20, Loudness: floatPtr(-14)},
		},
	}

	stats, err := o.Run(context.Background(), d)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Successful != 2 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want 2 successful / 0 failed", stats)
	}
	if d.Status != model.DeliveryStatusDelivered {
		t.Errorf("Status = %v, want DELIVERED", d.Status)
	}
	for _, name := range d.Platforms {
		if d.PerPlatform[name].Status != model.DeliveryStatusDelivered {
			t.Errorf("PerPlatform[%s] = %+v, want DELIVERED", name, d.PerPlatform[name])
		}
	}
}

func TestOrchestratorIsolatesPerPlatformValidationFailure(t *testing.T) {
	fake := &FakeUploader{}
	o, _, stop := newTestOrchestrator(t, map[string]Uploader{"oauth2": fake, "api_key": fake})
	defer stop()

	d := &model.Delivery{
		ID:        "del-2",
		Platforms: []string{"spotify", "tidal"},
		// Missing required metadata fields entirely -> both platforms should
		// fail validation, independently, neither touching the uploader.
		Metadata: map[string]any{},
		Assets: []model.AudioAsset{
			{Path: "/tmp/track.flac", Format: "flac", BitDepth: 24, SampleRate: 48000, FileSize: 1 << 20, Loudness: floatPtr(-14)},
		},
	}

	stats, err := o.Run(context.Background(), d)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Successful != 0 || stats.Failed != 2 {
		t.Errorf("stats = %+v, want 0 successful / 2 failed", stats)
	}
	if d.Status != model.DeliveryStatusFailed {
		t.Errorf("Status = %v, want FAILED", d.Status)
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("uploader was called %d times, want 0 (validation should have failed first)", len(fake.Calls()))
	}
}

func TestOrchestratorDeliveredWhenAtLeastOnePlatformSucceeds(t *testing.T) {
	fake := &FakeUploader{
		Errors: map[string]error{"youtube": errTransientDelivery},
	}
	o, _, stop := newTestOrchestrator(t, map[string]Uploader{"oauth2": fake, "api_key": fake})
	defer stop()

	d := &model.Delivery{
		ID:        "del-3",
		Platforms: []string{"spotify", "youtube"},
		Metadata:  map[string]any{"title": "Track", "artist": "Artist", "isrc": "US1234567890", "release_date": "2026-01-01"},
		Assets: []model.AudioAsset{
			{Path: "/tmp/track.flac", Format: "flac", BitDepth: 24, SampleRate: 48000, FileSize: 1 << 20, Loudness: floatPtr(-14)},
		},
	}

	stats, err := o.Run(context.Background(), d)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Successful != 1 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want 1 successful / 1 failed", stats)
	}
	if d.Status != model.DeliveryStatusDelivered {
		t.Errorf("Status = %v, want DELIVERED (at least one platform succeeded)", d.Status)
	}
}

func TestAssetNeedsProcessingDetectsFormatAndLoudnessMismatch(t *testing.T) {
	contract := platform.Contracts["spotify"]

	wavAsset := model.AudioAsset{Format: "mp3", Loudness: floatPtr(-14)}
	if !assetNeedsProcessing(wavAsset, contract) {
		t.Error("expected format mismatch to require processing")
	}

	loud := model.AudioAsset{Format: "flac", Loudness: floatPtr(-8)}
	if !assetNeedsProcessing(loud, contract) {
		t.Error("expected loudness offset beyond threshold to require processing")
	}

	onTarget := model.AudioAsset{Format: "flac", Loudness: floatPtr(-14.05)}
	if assetNeedsProcessing(onTarget, contract) {
		t.Error("expected a near-target asset to not require processing")
	}
}

type deliveryErr struct{ msg string }

func (e deliveryErr) Error() string { return e.msg }

var errTransientDelivery = deliveryErr{"upload rejected"}
