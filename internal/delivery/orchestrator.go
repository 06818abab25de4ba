// Package delivery implements the Delivery Orchestrator: a sequential
// validate -> process -> upload workflow run per Delivery, with per-platform
// failures isolated from one another.
package delivery

import (
	"context"
	"log/slog"
	"math"
	"time"

	ierrors "github.com/tphakala/audioqa/internal/errors"
	"github.com/tphakala/audioqa/internal/logging"
	"github.com/tphakala/audioqa/internal/model"
	"github.com/tphakala/audioqa/internal/platform"
	"github.com/tphakala/audioqa/internal/queue"
)

var logger *slog.Logger

func init() {
	logger = logging.ForService("delivery")
	if logger == nil {
		logger = slog.Default().With("service", "delivery")
	}
}

// loudnessOffsetThreshold is the per-platform loudness delta, in LU, above
// which an asset is considered to need re-processing before upload.
const loudnessOffsetThreshold = 0.1

// pollInterval is how often Orchestrator.awaitJob checks a submitted PROCESS
// job's state while it is still non-terminal.
const pollInterval = 200 * time.Millisecond

// Stats is the aggregate outcome of one Orchestrator.Run call, updated
// exactly once, atomically, after every platform reaches a terminal state.
type Stats struct {
	Successful  int
	Failed      int
	PerPlatform map[string]model.DeliveryStatus
}

// Orchestrator runs the validate -> process -> upload workflow for a
// Delivery. Queue submits PROCESS jobs for assets that need
// re-rendering before upload; Uploaders maps each platform's AuthMethod
// (platform.Contract.AuthMethod) to the Uploader that can deliver to it.
type Orchestrator struct {
	Queue     *queue.Engine
	Uploaders map[string]Uploader
	Contracts map[string]platform.Contract
}

// New builds an Orchestrator over the default platform contract table.
func New(q *queue.Engine, uploaders map[string]Uploader) *Orchestrator {
	return &Orchestrator{Queue: q, Uploaders: uploaders, Contracts: platform.Contracts}
}

// Run executes the full validate -> process -> upload workflow for d,
// mutating d.PerPlatform/d.Status/d.Progress in place, and returns the
// aggregate statistics. Per-platform failures never abort the delivery:
// every requested platform is attempted regardless of how its siblings
// fared.
func (o *Orchestrator) Run(ctx context.Context, d *model.Delivery) (Stats, error) {
	if d.PerPlatform == nil {
		d.PerPlatform = make(map[string]model.PlatformDeliveryState, len(d.Platforms))
	}
	d.Status = model.DeliveryStatusValidating

	eligible := o.validate(d)

	d.Status = model.DeliveryStatusProcessing
	eligible = o.process(ctx, d, eligible)

	d.Status = model.DeliveryStatusUploading
	o.upload(ctx, d, eligible)

	stats := o.finalize(d)
	return stats, nil
}

// validate runs step 1 for every requested platform and returns the subset
// still eligible to proceed to processing.
func (o *Orchestrator) validate(d *model.Delivery) []string {
	var eligible []string
	for _, name := range d.Platforms {
		contract, ok := o.Contracts[name]
		if !ok {
			o.failPlatform(d, name, ierrors.Newf("unknown delivery platform %q", name).
				Component("delivery").Category(ierrors.CategoryPlatform).Build())
			continue
		}

		if err := validateMetadata(d.Metadata, contract); err != nil {
			o.failPlatform(d, name, err)
			continue
		}

		if err := validateAssets(d.Assets, contract); err != nil {
			o.failPlatform(d, name, err)
			continue
		}

		d.PerPlatform[name] = model.PlatformDeliveryState{Status: model.DeliveryStatusValidating, Progress: 10}
		eligible = append(eligible, name)
	}
	return eligible
}

func validateMetadata(metadata map[string]any, contract platform.Contract) error {
	for _, field := range contract.RequiredFields {
		v, ok := metadata[field]
		if !ok || v == "" {
			return ierrors.Newf("missing required metadata field %q for platform %q", field, contract.Name).
				Component("delivery").Category(ierrors.CategoryValidation).
				Context("field", field).Build()
		}
	}
	return nil
}

func validateAssets(assets []model.AudioAsset, contract platform.Contract) error {
	for _, asset := range assets {
		if !contract.AllowsFormat(asset.Format) {
			return ierrors.Newf("format %q not accepted by platform %q", asset.Format, contract.Name).
				Component("delivery").Category(ierrors.CategoryValidation).
				Context("format", asset.Format).Build()
		}
		if asset.BitDepth < contract.MinBitDepth {
			return ierrors.Newf("bit depth %d below platform %q minimum %d", asset.BitDepth, contract.Name, contract.MinBitDepth).
				Component("delivery").Category(ierrors.CategoryValidation).Build()
		}
		if asset.SampleRate < contract.MinSampleRate {
			return ierrors.Newf("sample rate %d below platform %q minimum %d", asset.SampleRate, contract.Name, contract.MinSampleRate).
				Component("delivery").Category(ierrors.CategoryValidation).Build()
		}
		if asset.FileSize > contract.MaxFileSize {
			return ierrors.Newf("file size %d exceeds platform %q maximum %d", asset.FileSize, contract.Name, contract.MaxFileSize).
				Component("delivery").Category(ierrors.CategoryValidation).Build()
		}
		if asset.Loudness != nil && math.Abs(*asset.Loudness-contract.LoudnessTarget) > contract.LoudnessTolerance {
			return ierrors.Newf("loudness %.1f LUFS outside platform %q tolerance (target %.1f +/- %.1f)",
				*asset.Loudness, contract.Name, contract.LoudnessTarget, contract.LoudnessTolerance).
				Component("delivery").Category(ierrors.CategoryValidation).Build()
		}
	}
	return nil
}

// process runs step 2: for each still-eligible platform, every asset that
// needs re-rendering (format mismatch or loudness offset beyond
// loudnessOffsetThreshold) gets a HIGH-priority PROCESS job, awaited to its
// terminal state before the platform proceeds.
func (o *Orchestrator) process(ctx context.Context, d *model.Delivery, platforms []string) []string {
	var eligible []string
	for _, name := range platforms {
		contract := o.Contracts[name]
		state := d.PerPlatform[name]
		state.Status = model.DeliveryStatusProcessing
		state.Progress = 30
		d.PerPlatform[name] = state

		ok := true
		for _, asset := range d.Assets {
			if !assetNeedsProcessing(asset, contract) {
				continue
			}
			job, err := o.Queue.Enqueue(model.JobTypeProcess, model.JobPriorityHigh, d.ID, asset, nil)
			if err != nil {
				o.failPlatform(d, name, err)
				ok = false
				break
			}
			final, err := o.awaitJob(ctx, job.ID)
			if err != nil {
				o.failPlatform(d, name, err)
				ok = false
				break
			}
			if final.State != model.JobStateCompleted {
				o.failPlatform(d, name, final.Error)
				ok = false
				break
			}
		}
		if ok {
			eligible = append(eligible, name)
		}
	}
	return eligible
}

func assetNeedsProcessing(asset model.AudioAsset, contract platform.Contract) bool {
	if !contract.AllowsFormat(asset.Format) {
		return true
	}
	if asset.Loudness != nil && math.Abs(*asset.Loudness-contract.LoudnessTarget) > loudnessOffsetThreshold {
		return true
	}
	return false
}

// awaitJob polls the queue engine for id's terminal state, the "polling a
// peer job for completion" suspension point spec.md §5 names explicitly.
func (o *Orchestrator) awaitJob(ctx context.Context, id string) (model.Job, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		job, ok := o.Queue.Job(id)
		if !ok {
			return model.Job{}, ierrors.Newf("process job %s disappeared from the queue", id).
				Component("delivery").Category(ierrors.CategoryJobQueue).Build()
		}
		switch job.State {
		case model.JobStateCompleted, model.JobStateFailed, model.JobStateCancelled:
			return job, nil
		}
		select {
		case <-ctx.Done():
			return model.Job{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// upload runs step 3 for every platform that survived validation and
// processing.
func (o *Orchestrator) upload(ctx context.Context, d *model.Delivery, platforms []string) {
	for _, name := range platforms {
		contract := o.Contracts[name]
		state := d.PerPlatform[name]
		state.Status = model.DeliveryStatusUploading
		state.Progress = 70
		d.PerPlatform[name] = state

		uploader, ok := o.Uploaders[contract.AuthMethod]
		if !ok {
			o.failPlatform(d, name, ierrors.Newf("no uploader configured for auth method %q (platform %q)", contract.AuthMethod, name).
				Component("delivery").Category(ierrors.CategoryPlatform).Build())
			continue
		}

		var lastResult UploadResult
		uploadFailed := false
		for _, asset := range d.Assets {
			result, err := uploader.Upload(ctx, name, asset.Path)
			if err != nil {
				o.failPlatform(d, name, err)
				uploadFailed = true
				break
			}
			lastResult = result
		}
		if uploadFailed {
			continue
		}

		d.PerPlatform[name] = model.PlatformDeliveryState{
			Status:     model.DeliveryStatusDelivered,
			Progress:   100,
			UploadedAt: lastResult.Uploaded.Format(time.RFC3339),
		}
	}
}

func (o *Orchestrator) failPlatform(d *model.Delivery, name string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	d.PerPlatform[name] = model.PlatformDeliveryState{Status: model.DeliveryStatusFailed, Error: msg}
	logger.Warn("platform delivery failed", "delivery_id", d.ID, "platform", name, "error", msg)
}

// finalize computes the aggregate statistics and the delivery's overall
// status: DELIVERED iff at least one requested platform succeeded and none
// of them remain in a non-terminal state, otherwise FAILED. Stats are
// computed once, after every platform has reached a terminal state, per
// spec.md §5's "delivery stats updated only at terminal transitions".
func (o *Orchestrator) finalize(d *model.Delivery) Stats {
	stats := Stats{PerPlatform: make(map[string]model.DeliveryStatus, len(d.Platforms))}

	for _, name := range d.Platforms {
		state := d.PerPlatform[name]
		stats.PerPlatform[name] = state.Status
		switch state.Status {
		case model.DeliveryStatusDelivered:
			stats.Successful++
		default:
			stats.Failed++
		}
	}

	d.Progress = 100
	if stats.Successful > 0 {
		d.Status = model.DeliveryStatusDelivered
	} else {
		d.Status = model.DeliveryStatusFailed
	}
	return stats
}
