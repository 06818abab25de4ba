package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	ierrors "github.com/tphakala/audioqa/internal/errors"
	platformpkg "github.com/tphakala/audioqa/internal/platform"
)

// HTTPSUploader pushes a file to a platform's upload endpoint as a
// multipart/form-data POST, the transport spec.md §4.H names for most
// streaming platforms' delivery APIs.
type HTTPSUploader struct {
	Client *http.Client
	// Endpoint resolves a platform name to its upload URL; defaults to the
	// platform contract table's UploadEndpoint when nil.
	Endpoint func(platform string) (string, bool)
}

type httpsUploadResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Upload implements Uploader.
func (u *HTTPSUploader) Upload(ctx context.Context, platform, localPath string) (UploadResult, error) {
	endpointFor := u.Endpoint
	if endpointFor == nil {
		endpointFor = func(name string) (string, bool) {
			c, found := platformpkg.Lookup(name)
			return c.UploadEndpoint, found && c.UploadEndpoint != ""
		}
	}
	endpoint, ok := endpointFor(platform)
	if !ok {
		return UploadResult{}, ierrors.Newf("no upload endpoint configured for platform %q", platform).
			Component("delivery").Category(ierrors.CategoryPlatform).Build()
	}

	file, err := os.Open(localPath)
	if err != nil {
		return UploadResult{}, ierrors.New(err).Component("delivery").Category(ierrors.CategoryFileIO).Build()
	}
	defer file.Close()

	body, contentType, err := buildMultipartBody(filepath.Base(localPath), file)
	if err != nil {
		return UploadResult{}, ierrors.New(err).Component("delivery").Category(ierrors.CategoryHTTP).Build()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return UploadResult{}, ierrors.New(err).Component("delivery").Category(ierrors.CategoryHTTP).Build()
	}
	req.Header.Set("Content-Type", contentType)

	client := u.Client
	if client == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return UploadResult{}, handleHTTPNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return UploadResult{}, ierrors.Newf("upload to %s rejected with status %d", platform, resp.StatusCode).
			Component("delivery").Category(ierrors.CategoryPlatform).Context("platform", platform).Build()
	}

	var parsed httpsUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return UploadResult{}, ierrors.New(err).Component("delivery").Category(ierrors.CategoryHTTP).Build()
	}

	return UploadResult{UploadID: parsed.ID, URL: parsed.URL, Uploaded: time.Now()}, nil
}

func buildMultipartBody(filename string, src io.Reader) (io.Reader, string, error) {
	buf := &multipartBuffer{}
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("create multipart field: %w", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return nil, "", fmt.Errorf("copy file into multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf, writer.FormDataContentType(), nil
}

// multipartBuffer is the minimal io.Writer multipart.NewWriter needs,
// backed by an in-memory slice so the whole request body can be built
// before the HTTP round trip starts.
type multipartBuffer struct {
	data []byte
}

func (b *multipartBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *multipartBuffer) Read(p []byte) (int, error) {
	if len(b.data) == 0 {
		return 0, io.EOF
	}
	n := copy(p, b.data)
	b.data = b.data[n:]
	return n, nil
}

func handleHTTPNetworkError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ierrors.New(err).Component("delivery").Category(ierrors.CategoryTimeout).Build()
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		var dnsErr *net.DNSError
		if errors.As(urlErr.Err, &dnsErr) {
			return ierrors.New(err).Component("delivery").Category(ierrors.CategoryNetwork).Context("reason", "dns").Build()
		}
	}
	return ierrors.New(err).Component("delivery").Category(ierrors.CategoryNetwork).Build()
}
