package delivery

import (
	"context"
	"time"
)

// UploadResult is what a successful Uploader.Upload call returns: enough to
// populate a model.PlatformDeliveryState's uploadId/url/timestamp fields.
type UploadResult struct {
	UploadID string
	URL      string
	Uploaded time.Time
}

// Uploader performs the platform-specific half of delivery: pushing one
// already-processed local file to one platform. Each platform's auth
// method and transport are opaque to the orchestrator, which only ever
// calls Upload.
type Uploader interface {
	Upload(ctx context.Context, platform, localPath string) (UploadResult, error)
}
