package delivery

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	ierrors "github.com/tphakala/audioqa/internal/errors"
)

// FTPUploader delivers over plain FTP, for platforms whose upload auth
// method is "ftp_password".
type FTPUploader struct {
	Host     string
	Port     int
	Username string
	Password string
	BasePath string
	Timeout  time.Duration
}

func (u *FTPUploader) connect(ctx context.Context) (*ftp.ServerConn, error) {
	connCh := make(chan *ftp.ServerConn, 1)
	errCh := make(chan error, 1)

	timeout := u.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	go func() {
		addr := fmt.Sprintf("%s:%d", u.Host, u.Port)
		conn, err := ftp.Dial(addr, ftp.DialWithTimeout(timeout))
		if err != nil {
			errCh <- ierrors.New(err).Component("delivery").Category(ierrors.CategoryNetwork).Build()
			return
		}
		if u.Username != "" {
			if err := conn.Login(u.Username, u.Password); err != nil {
				_ = conn.Quit()
				errCh <- ierrors.New(err).Component("delivery").Category(ierrors.CategoryPlatform).Build()
				return
			}
		}
		connCh <- conn
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-errCh:
		return nil, err
	case conn := <-connCh:
		return conn, nil
	}
}

func (u *FTPUploader) createDirectory(conn *ftp.ServerConn, dir string) error {
	current := ""
	for _, part := range strings.Split(dir, "/") {
		if part == "" {
			continue
		}
		current += "/" + part
		if err := conn.MakeDir(current); err != nil && !strings.Contains(err.Error(), "File exists") {
			return ierrors.New(err).Component("delivery").Category(ierrors.CategoryPlatform).
				Context("directory", current).Build()
		}
	}
	return nil
}

// Upload implements Uploader.
func (u *FTPUploader) Upload(ctx context.Context, platform, localPath string) (UploadResult, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return UploadResult{}, ierrors.New(err).Component("delivery").Category(ierrors.CategoryFileIO).Build()
	}
	defer file.Close()

	conn, err := u.connect(ctx)
	if err != nil {
		return UploadResult{}, err
	}
	defer conn.Quit()

	if err := u.createDirectory(conn, u.BasePath); err != nil {
		return UploadResult{}, err
	}

	remotePath := path.Join(u.BasePath, path.Base(localPath))
	if err := conn.Stor(remotePath, file); err != nil {
		return UploadResult{}, ierrors.New(err).Component("delivery").Category(ierrors.CategoryPlatform).
			Context("platform", platform).Context("path", remotePath).Build()
	}

	return UploadResult{
		UploadID: remotePath,
		URL:      fmt.Sprintf("ftp://%s/%s", u.Host, remotePath),
		Uploaded: time.Now(),
	}, nil
}
