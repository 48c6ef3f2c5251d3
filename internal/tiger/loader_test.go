package tiger

import (
	"archive/zip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civic-analytics/streetmatch/internal/fetcher"
	"github.com/civic-analytics/streetmatch/internal/model"
)

type memWriter struct {
	segments []model.Segment
	faces    []model.Face
}

func (m *memWriter) InsertSegments(_ context.Context, segments []model.Segment) error {
	m.segments = append(m.segments, segments...)
	return nil
}

func (m *memWriter) InsertFaces(_ context.Context, faces []model.Face) error {
	m.faces = append(m.faces, faces...)
	return nil
}

// zipShapefileSet packs the shapefile at shpPath (plus sidecars) into a
// zip archive, mimicking the layout of a Census county archive.
func zipShapefileSet(t *testing.T, shpPath, zipPath string) {
	t.Helper()

	zf, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(zf)

	base := shpPath[:len(shpPath)-len(".shp")]
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		data, err := os.ReadFile(base + ext)
		require.NoError(t, err)
		w, err := zw.Create(filepath.Base(base) + ext)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, zf.Close())
}

func TestLoad(t *testing.T) {
	srcDir := t.TempDir()
	edgesShp := writeEdgesShapefile(t, srcDir)
	facesShp := writeFacesShapefile(t, srcDir)

	archives := filepath.Join(srcDir, "archives")
	require.NoError(t, os.MkdirAll(archives, 0o755))
	zipShapefileSet(t, edgesShp, filepath.Join(archives, "tl_2017_08031_edges.zip"))
	zipShapefileSet(t, facesShp, filepath.Join(archives, "tl_2017_08031_faces.zip"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(archives, filepath.Base(r.URL.Path)))
	}))
	defer srv.Close()

	dl := NewDownloader(&rewriteFetcher{
		inner: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{RequestsPerSec: 100}),
		base:  srv.URL,
	}, nil)

	var sink memWriter
	result, err := Load(context.Background(), &sink, dl, LoadOptions{
		Year:     2017,
		Counties: []string{"08031"},
		TempDir:  t.TempDir(),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Counties)
	assert.Equal(t, 3, result.Segments)
	assert.Equal(t, 2, result.Faces)
	assert.Len(t, sink.segments, 3)
	assert.Len(t, sink.faces, 2)
}

func TestLoad_Validation(t *testing.T) {
	var sink memWriter

	_, err := Load(context.Background(), &sink, nil, LoadOptions{})
	assert.Error(t, err)

	_, err = Load(context.Background(), &sink, nil, LoadOptions{Counties: []string{"bad"}})
	assert.Error(t, err)
}

// rewriteFetcher redirects census URLs at the local test server while
// keeping the archive file name.
type rewriteFetcher struct {
	inner fetcher.Fetcher
	base  string
}

func (r *rewriteFetcher) Download(ctx context.Context, url string) (rc io.ReadCloser, err error) {
	return r.inner.Download(ctx, r.rewrite(url))
}

func (r *rewriteFetcher) DownloadToFile(ctx context.Context, url, path string) (int64, error) {
	return r.inner.DownloadToFile(ctx, r.rewrite(url), path)
}

func (r *rewriteFetcher) rewrite(url string) string {
	return r.base + "/" + filepath.Base(url)
}
