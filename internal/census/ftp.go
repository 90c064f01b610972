// Package census mirrors TIGER/Line shapefiles from the Census Bureau FTP
// server and reads the downloaded archives.
package census

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	appConfig "deweydata/config"
	"deweydata/internal/models"
	"deweydata/pkg/utils"
)

const defaultFTPTimeout = 600 * time.Second

// Conn is the subset of an FTP session the mirror needs.
type Conn interface {
	ChangeDir(path string) error
	ChangeDirToParent() error
	NameList(path string) ([]string, error)
	Retr(path string) (io.ReadCloser, error)
	Quit() error
}

// Dialer opens an anonymous FTP session.
type Dialer func(ctx context.Context, addr string, timeout time.Duration) (Conn, error)

type serverConn struct {
	*ftp.ServerConn
}

func (c serverConn) Retr(path string) (io.ReadCloser, error) {
	return c.ServerConn.Retr(path)
}

// DialAnonymous connects to addr and logs in as anonymous. The session is
// switched to binary transfers by the login.
func DialAnonymous(ctx context.Context, addr string, timeout time.Duration) (Conn, error) {
	c, err := ftp.Dial(addr, ftp.DialWithTimeout(timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	if err := c.Login("anonymous", "anonymous"); err != nil {
		c.Quit()
		return nil, fmt.Errorf("login to %s: %w", addr, err)
	}
	return serverConn{c}, nil
}

// Mirror copies TIGER/Line dataset directories of one year to LocalDir.
type Mirror struct {
	Host       string
	Dialer     Dialer
	LocalDir   string
	Year       string
	RootPrefix string
	Logger     *slog.Logger
}

// NewMirror builds a Mirror from the census settings of cfg.
func NewMirror(cfg *appConfig.Config, year string) *Mirror {
	return &Mirror{
		Host:       cfg.CensusFTPHost,
		Dialer:     DialAnonymous,
		LocalDir:   cfg.CensusLocalDir,
		Year:       year,
		RootPrefix: cfg.CensusRootPrefix,
		Logger:     slog.Default(),
	}
}

type MirrorOptions struct {
	SkipExisting bool
	// Recursive descends into subdirectories. Without it only the files at
	// the top of each dataset directory are fetched.
	Recursive bool
	// Timeout bounds the dial; zero means 600 seconds.
	Timeout time.Duration
}

// Root returns the remote year directory, e.g. /geo/tiger/TIGER2023/.
func (m *Mirror) Root() string {
	prefix := m.RootPrefix
	if prefix == "" {
		prefix = appConfig.DefaultCensusRootPrefix
	}
	return prefix + m.Year + "/"
}

// Download mirrors every dataset directory under the year root. Entries whose
// name has no dot are taken to be directories; a directory named with a dot
// is fetched as a file and fails.
func (m *Mirror) Download(ctx context.Context, datasets []string, opts MirrorOptions) (*models.MirrorResult, error) {
	startTime := time.Now()
	if m.Logger == nil {
		m.Logger = slog.Default()
	}
	host := m.Host
	if host == "" {
		host = appConfig.DefaultCensusFTPHost
	}
	dial := m.Dialer
	if dial == nil {
		dial = DialAnonymous
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultFTPTimeout
	}

	conn, err := dial(ctx, host, timeout)
	if err != nil {
		return nil, err
	}

	result := &models.MirrorResult{
		Host:            host,
		Year:            m.Year,
		Datasets:        datasets,
		LocalDir:        m.LocalDir,
		DownloadedFiles: []string{},
	}
	finish := func() {
		result.TotalSizeHuman = utils.FormatBytes(result.TotalSizeBytes)
		result.OperationTime = utils.FormatTime(startTime)
		result.Duration = time.Since(startTime).String()
	}

	for _, dataset := range datasets {
		if err := conn.ChangeDir(m.Root()); err != nil {
			conn.Quit()
			finish()
			return result, fmt.Errorf("cwd %s: %w", m.Root(), err)
		}
		if err := m.mirrorDir(ctx, conn, dataset, m.LocalDir, opts, result); err != nil {
			conn.Quit()
			finish()
			return result, err
		}
	}

	if err := conn.Quit(); err != nil {
		m.Logger.Warn("ftp quit failed", "error", err)
	}
	finish()
	return result, nil
}

func (m *Mirror) mirrorDir(ctx context.Context, conn Conn, remoteDir, localDir string, opts MirrorOptions, result *models.MirrorResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	remoteDir = strings.TrimPrefix(remoteDir, "/")
	remoteDir = strings.TrimPrefix(remoteDir, "./")

	if err := conn.ChangeDir(remoteDir); err != nil {
		return fmt.Errorf("cwd %s: %w", remoteDir, err)
	}

	localPath := filepath.Join(localDir, remoteDir)
	if err := os.MkdirAll(localPath, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", localPath, err)
	}

	names, err := conn.NameList("")
	if err != nil {
		return fmt.Errorf("list %s: %w", remoteDir, err)
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !strings.Contains(name, ".") {
			if !opts.Recursive {
				continue
			}
			if err := m.mirrorDir(ctx, conn, name, localPath, opts, result); err != nil {
				return err
			}
			if err := conn.ChangeDirToParent(); err != nil {
				return fmt.Errorf("cdup from %s: %w", name, err)
			}
			continue
		}

		localFile := filepath.Join(localPath, name)
		if opts.SkipExisting {
			if _, err := os.Stat(localFile); err == nil {
				m.Logger.Info("skipping existing file", "file", name, "path", localFile)
				result.SkippedFiles = append(result.SkippedFiles, localFile)
				continue
			}
		}

		m.Logger.Info("downloading", "file", name, "path", localFile)
		n, err := retrieve(conn, name, localFile)
		if err != nil {
			return err
		}
		result.DownloadedFiles = append(result.DownloadedFiles, localFile)
		result.TotalSizeBytes += n
	}
	return nil
}

func retrieve(conn Conn, name, localFile string) (int64, error) {
	r, err := conn.Retr(name)
	if err != nil {
		return 0, fmt.Errorf("retr %s: %w", name, err)
	}
	defer r.Close()

	f, err := os.Create(localFile)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", localFile, err)
	}
	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		return n, fmt.Errorf("retr %s: %w", name, err)
	}
	return n, f.Close()
}
