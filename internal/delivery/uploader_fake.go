package delivery

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FakeUploader is an in-memory Uploader for tests: it never touches the
// network, recording every call it receives and returning a scripted
// result or error per platform.
type FakeUploader struct {
	mu      sync.Mutex
	calls   []FakeUploadCall
	Results map[string]UploadResult
	Errors  map[string]error
}

// FakeUploadCall records one Upload invocation for test assertions.
type FakeUploadCall struct {
	Platform  string
	LocalPath string
}

// Upload implements Uploader.
func (u *FakeUploader) Upload(ctx context.Context, platform, localPath string) (UploadResult, error) {
	u.mu.Lock()
	u.calls = append(u.calls, FakeUploadCall{Platform: platform, LocalPath: localPath})
	u.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return UploadResult{}, err
	}
	if u.Errors != nil {
		if err, ok := u.Errors[platform]; ok {
			return UploadResult{}, err
		}
	}
	if u.Results != nil {
		if res, ok := u.Results[platform]; ok {
			return res, nil
		}
	}
	return UploadResult{
		UploadID: fmt.Sprintf("fake-%s-%d", platform, len(u.calls)),
		URL:      fmt.Sprintf("https://fake.example/%s", platform),
		Uploaded: time.Now(),
	}, nil
}

// Calls returns every recorded Upload call, in order.
func (u *FakeUploader) Calls() []FakeUploadCall {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]FakeUploadCall, len(u.calls))
	copy(out, u.calls)
	return out
}
