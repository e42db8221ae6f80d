// Package fetch acquires the boundary archive: download over FTP (the
// dataset's canonical home) or HTTP, then extract the zip into the
// data directory. If the shapefile is already on disk nothing is
// downloaded.
package fetch

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/banshee-data/watershed.report/internal/fsutil"
	"github.com/banshee-data/watershed.report/internal/monitoring"
)

// ErrUnsupportedScheme is returned for URLs that are neither ftp nor
// http(s).
var ErrUnsupportedScheme = errors.New("fetch: unsupported URL scheme")

const defaultTimeout = 60 * time.Second

// Fetcher downloads and extracts boundary archives. The zero value is
// usable: it talks to the real filesystem and network with a default
// timeout.
type Fetcher struct {
	// FS is the filesystem the archive and its contents are written
	// to. Defaults to the OS filesystem.
	FS fsutil.FileSystem

	// Client is used for http(s) URLs. Defaults to http.DefaultClient.
	Client *http.Client

	// Timeout bounds the FTP dial and transfer.
	Timeout time.Duration
}

func (f *Fetcher) fs() fsutil.FileSystem {
	if f.FS != nil {
		return f.FS
	}
	return fsutil.OS{}
}

func (f *Fetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func (f *Fetcher) timeout() time.Duration {
	if f.Timeout > 0 {
		return f.Timeout
	}
	return defaultTimeout
}

// Ensure makes the named shapefile available under dataDir, fetching
// and extracting the archive at rawURL only when the file is missing.
// It returns the shapefile path.
func (f *Fetcher) Ensure(ctx context.Context, rawURL, dataDir, shapefileName string) (string, error) {
	target := filepath.Join(dataDir, shapefileName)
	if f.fs().Exists(target) {
		monitoring.Logf("fetch: %s already present, skipping download", target)
		return target, nil
	}

	if err := f.fs().MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("fetch: create data dir: %w", err)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("fetch: parse url: %w", err)
	}

	archive := filepath.Join(dataDir, path.Base(u.Path))
	if !f.fs().Exists(archive) {
		if err := f.download(ctx, u, archive); err != nil {
			return "", err
		}
	} else {
		monitoring.Logf("fetch: archive %s already present, skipping download", archive)
	}

	if err := f.Unzip(archive, dataDir); err != nil {
		return "", err
	}

	if !f.fs().Exists(target) {
		return "", fmt.Errorf("fetch: archive %s did not contain %s", archive, shapefileName)
	}
	return target, nil
}

func (f *Fetcher) download(ctx context.Context, u *url.URL, dest string) error {
	monitoring.Logf("fetch: downloading %s", u.Redacted())

	var body io.ReadCloser
	var err error
	switch u.Scheme {
	case "ftp":
		body, err = f.openFTP(ctx, u)
	case "http", "https":
		body, err = f.openHTTP(ctx, u)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if err != nil {
		return err
	}
	defer body.Close()

	out, err := f.fs().Create(dest)
	if err != nil {
		return fmt.Errorf("fetch: create %s: %w", dest, err)
	}
	n, err := io.Copy(out, body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// A partial archive would be trusted by the reuse check on the
		// next run, so it must not survive a failed transfer.
		if rerr := f.fs().Remove(dest); rerr != nil {
			monitoring.Logf("fetch: remove partial archive %s: %v", dest, rerr)
		}
		return fmt.Errorf("fetch: download %s: %w", u.Redacted(), err)
	}
	monitoring.Logf("fetch: wrote %s (%d bytes)", dest, n)
	return nil
}

// ftpBody ties the data connection's lifetime to the control
// connection so Close tears both down.
type ftpBody struct {
	io.ReadCloser
	conn *ftp.ServerConn
}

func (b *ftpBody) Close() error {
	err := b.ReadCloser.Close()
	if qerr := b.conn.Quit(); err == nil {
		err = qerr
	}
	return err
}

func (f *Fetcher) openFTP(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	addr := u.Host
	if u.Port() == "" {
		addr = addr + ":21"
	}

	conn, err := ftp.Dial(addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(f.timeout()))
	if err != nil {
		return nil, fmt.Errorf("fetch: ftp dial %s: %w", addr, err)
	}

	user, pass := "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	if err := conn.Login(user, pass); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("fetch: ftp login: %w", err)
	}

	resp, err := conn.Retr(strings.TrimPrefix(u.Path, "/"))
	if err != nil {
		conn.Quit()
		return nil, fmt.Errorf("fetch: ftp retrieve %s: %w", u.Path, err)
	}
	return &ftpBody{ReadCloser: resp, conn: conn}, nil
}

func (f *Fetcher) openHTTP(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request: %w", err)
	}
	resp, err := f.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: http get %s: %w", u.Redacted(), err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch: http get %s: status %s", u.Redacted(), resp.Status)
	}
	return resp.Body, nil
}

// Unzip extracts every entry of the archive into destDir. Entries that
// would escape destDir are rejected.
func (f *Fetcher) Unzip(archive, destDir string) error {
	data, err := f.fs().ReadFile(archive)
	if err != nil {
		return fmt.Errorf("fetch: read archive: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("fetch: open archive %s: %w", archive, err)
	}

	cleanDest := filepath.Clean(destDir)
	for _, entry := range zr.File {
		dest := filepath.Join(cleanDest, entry.Name)
		if dest != cleanDest && !strings.HasPrefix(dest, cleanDest+string(os.PathSeparator)) {
			return fmt.Errorf("fetch: archive entry escapes data dir: %s", entry.Name)
		}

		if entry.FileInfo().IsDir() {
			if err := f.fs().MkdirAll(dest, 0755); err != nil {
				return fmt.Errorf("fetch: extract %s: %w", entry.Name, err)
			}
			continue
		}

		if dir := filepath.Dir(dest); dir != cleanDest {
			if err := f.fs().MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("fetch: extract %s: %w", entry.Name, err)
			}
		}

		rc, err := entry.Open()
		if err != nil {
			return fmt.Errorf("fetch: extract %s: %w", entry.Name, err)
		}
		contents, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("fetch: extract %s: %w", entry.Name, err)
		}
		if err := f.fs().WriteFile(dest, contents, 0644); err != nil {
			return fmt.Errorf("fetch: extract %s: %w", entry.Name, err)
		}
		monitoring.Logf("fetch: extracted %s", dest)
	}
	return nil
}
