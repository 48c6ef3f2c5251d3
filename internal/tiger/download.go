package tiger

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civic-analytics/streetmatch/internal/fetcher"
)

// Downloader retrieves and unpacks county product archives, trying the
// web mirror first and the FTP mirror second.
type Downloader struct {
	http fetcher.Fetcher
	ftp  fetcher.Fetcher
}

// NewDownloader wires the transports. ftp may be nil to disable the
// fallback.
func NewDownloader(httpFetcher, ftpFetcher fetcher.Fetcher) *Downloader {
	return &Downloader{http: httpFetcher, ftp: ftpFetcher}
}

// Fetch downloads the archive for one county product into destDir and
// returns the path to the extracted .shp file. An archive already on
// disk with content is reused rather than re-downloaded.
func (d *Downloader) Fetch(ctx context.Context, product Product, year int, county, destDir string) (string, error) {
	log := zap.L().With(
		zap.String("component", "tiger.download"),
		zap.String("product", product.Name),
		zap.String("county", county),
	)

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", eris.Wrap(err, "tiger: create dest dir")
	}

	zipPath := filepath.Join(destDir, ArchiveName(product, year, county))
	if info, err := os.Stat(zipPath); err == nil && info.Size() > 0 {
		log.Debug("archive already on disk, skipping download", zap.String("path", zipPath))
	} else if err := d.download(ctx, product, year, county, zipPath, log); err != nil {
		return "", err
	}

	extractDir := strings.TrimSuffix(zipPath, ".zip")
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return "", eris.Wrap(err, "tiger: create extract dir")
	}
	paths, err := fetcher.ExtractZIP(zipPath, extractDir)
	if err != nil {
		return "", eris.Wrap(err, "tiger: extract archive")
	}
	shp, err := fetcher.FindShapefile(paths)
	if err != nil {
		return "", eris.Wrapf(err, "tiger: %s", zipPath)
	}
	return shp, nil
}

func (d *Downloader) download(ctx context.Context, product Product, year int, county, zipPath string, log *zap.Logger) error {
	url := DownloadURL(product, year, county)
	log.Info("downloading TIGER archive", zap.String("url", url))

	_, httpErr := d.http.DownloadToFile(ctx, url, zipPath)
	if httpErr == nil {
		return nil
	}
	if d.ftp == nil {
		return eris.Wrap(httpErr, "tiger: download archive")
	}

	ftpURL := FTPURL(product, year, county)
	log.Warn("http download failed, trying ftp mirror",
		zap.String("ftp_url", ftpURL),
		zap.Error(httpErr),
	)
	if _, ftpErr := d.ftp.DownloadToFile(ctx, ftpURL, zipPath); ftpErr != nil {
		return eris.Wrapf(ftpErr, "tiger: both mirrors failed (http: %v)", httpErr)
	}
	return nil
}
