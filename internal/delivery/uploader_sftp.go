package delivery

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	ierrors "github.com/tphakala/audioqa/internal/errors"
)

// SFTPUploader delivers over SFTP, for platforms whose upload auth method
// is "sftp_key". Host key verification is mandatory: a platform without a
// configured known_hosts file cannot be uploaded to over this adapter.
type SFTPUploader struct {
	Host          string
	Port          int
	Username      string
	KeyFile       string
	Password      string
	KnownHostFile string
	BasePath      string
	Timeout       time.Duration
}

type sftpConnResult struct {
	client *sftp.Client
	conn   *ssh.Client
	err    error
}

func (u *SFTPUploader) connect(ctx context.Context) (*sftp.Client, *ssh.Client, error) {
	resultCh := make(chan sftpConnResult, 1)

	timeout := u.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	go func() {
		if u.KnownHostFile == "" {
			resultCh <- sftpConnResult{err: ierrors.Newf("sftp: known_hosts file is required for host key verification").
				Component("delivery").Category(ierrors.CategoryValidation).Build()}
			return
		}
		hostKeyCallback, err := knownhosts.New(u.KnownHostFile)
		if err != nil {
			resultCh <- sftpConnResult{err: ierrors.New(err).Component("delivery").Category(ierrors.CategoryValidation).Build()}
			return
		}

		config := &ssh.ClientConfig{
			User:            u.Username,
			Timeout:         timeout,
			HostKeyCallback: hostKeyCallback,
		}
		switch {
		case u.KeyFile != "":
			key, err := os.ReadFile(u.KeyFile)
			if err != nil {
				resultCh <- sftpConnResult{err: ierrors.New(err).Component("delivery").Category(ierrors.CategoryFileIO).Build()}
				return
			}
			signer, err := ssh.ParsePrivateKey(key)
			if err != nil {
				resultCh <- sftpConnResult{err: ierrors.New(err).Component("delivery").Category(ierrors.CategoryValidation).Build()}
				return
			}
			config.Auth = []ssh.AuthMethod{ssh.PublicKeys(signer)}
		case u.Password != "":
			config.Auth = []ssh.AuthMethod{ssh.Password(u.Password)}
		default:
			resultCh <- sftpConnResult{err: ierrors.Newf("sftp: no authentication method provided").
				Component("delivery").Category(ierrors.CategoryValidation).Build()}
			return
		}

		addr := fmt.Sprintf("%s:%d", u.Host, u.Port)
		sshConn, err := ssh.Dial("tcp", addr, config)
		if err != nil {
			resultCh <- sftpConnResult{err: ierrors.New(err).Component("delivery").Category(ierrors.CategoryNetwork).
				Context("host", u.Host).Build()}
			return
		}
		client, err := sftp.NewClient(sshConn)
		if err != nil {
			sshConn.Close()
			resultCh <- sftpConnResult{err: ierrors.New(err).Component("delivery").Category(ierrors.CategoryNetwork).Build()}
			return
		}
		resultCh <- sftpConnResult{client: client, conn: sshConn}
	}()

	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case r := <-resultCh:
		return r.client, r.conn, r.err
	}
}

// Upload implements Uploader.
func (u *SFTPUploader) Upload(ctx context.Context, platform, localPath string) (UploadResult, error) {
	client, conn, err := u.connect(ctx)
	if err != nil {
		return UploadResult{}, err
	}
	defer client.Close()
	defer conn.Close()

	if err := client.MkdirAll(u.BasePath); err != nil {
		return UploadResult{}, ierrors.New(err).Component("delivery").Category(ierrors.CategoryPlatform).Build()
	}

	src, err := os.Open(localPath)
	if err != nil {
		return UploadResult{}, ierrors.New(err).Component("delivery").Category(ierrors.CategoryFileIO).Build()
	}
	defer src.Close()

	remotePath := path.Join(u.BasePath, path.Base(localPath))
	dst, err := client.Create(remotePath)
	if err != nil {
		return UploadResult{}, ierrors.New(err).Component("delivery").Category(ierrors.CategoryPlatform).
			Context("path", remotePath).Build()
	}
	defer dst.Close()

	if _, err := dst.ReadFrom(src); err != nil {
		return UploadResult{}, ierrors.New(err).Component("delivery").Category(ierrors.CategoryPlatform).
			Context("platform", platform).Build()
	}

	return UploadResult{
		UploadID: remotePath,
		URL:      fmt.Sprintf("sftp://%s/%s", u.Host, remotePath),
		Uploaded: time.Now(),
	}, nil
}
