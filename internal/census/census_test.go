package census

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn is an in-memory FTP session over a fixed directory tree.
type fakeConn struct {
	cwd   string
	dirs  map[string][]string
	files map[string]string
	log   []string
}

func (c *fakeConn) ChangeDir(p string) error {
	c.log = append(c.log, "CWD "+p)
	next := path.Clean(p)
	if !strings.HasPrefix(p, "/") {
		next = path.Join(c.cwd, p)
	}
	if _, ok := c.dirs[next]; !ok {
		return fmt.Errorf("550 %s: no such directory", next)
	}
	c.cwd = next
	return nil
}

func (c *fakeConn) ChangeDirToParent() error {
	c.log = append(c.log, "CDUP")
	c.cwd = path.Dir(c.cwd)
	return nil
}

func (c *fakeConn) NameList(string) ([]string, error) {
	c.log = append(c.log, "NLST "+c.cwd)
	return c.dirs[c.cwd], nil
}

func (c *fakeConn) Retr(name string) (io.ReadCloser, error) {
	full := path.Join(c.cwd, name)
	c.log = append(c.log, "RETR "+full)
	content, ok := c.files[full]
	if !ok {
		return nil, fmt.Errorf("550 %s: no such file", full)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (c *fakeConn) Quit() error {
	c.log = append(c.log, "QUIT")
	return nil
}

func (c *fakeConn) cwds() []string {
	var out []string
	for _, l := range c.log {
		if strings.HasPrefix(l, "CWD ") {
			out = append(out, strings.TrimPrefix(l, "CWD "))
		}
	}
	return out
}

func newFakeConn() *fakeConn {
	root := "/geo/tiger/TIGER2023"
	return &fakeConn{
		cwd: "/",
		dirs: map[string][]string{
			root:                  {"STATE", "PLACE"},
			root + "/STATE":       {"tl_2023_us_state.zip", "extra", "older"},
			root + "/STATE/extra": {"tl_2023_06_extra.zip"},
			root + "/STATE/older": {"tl_2022_06_older.zip"},
			root + "/PLACE":       {"tl_2023_06_place.zip", "tl_2023_36_place.zip"},
		},
		files: map[string]string{
			root + "/STATE/tl_2023_us_state.zip":       "us-state",
			root + "/STATE/extra/tl_2023_06_extra.zip": "extra",
			root + "/STATE/older/tl_2022_06_older.zip": "older",
			root + "/PLACE/tl_2023_06_place.zip":       "ca-place",
			root + "/PLACE/tl_2023_36_place.zip":       "ny-place",
		},
	}
}

func testMirror(conn *fakeConn, localDir string) *Mirror {
	return &Mirror{
		Host: "ftp.test:21",
		Dialer: func(ctx context.Context, addr string, timeout time.Duration) (Conn, error) {
			return conn, nil
		},
		LocalDir:   localDir,
		Year:       "2023",
		RootPrefix: "/geo/tiger/TIGER",
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestMirrorRoot(t *testing.T) {
	m := &Mirror{Year: "2021"}
	assert.Equal(t, "/geo/tiger/TIGER2021/", m.Root())
}

func TestMirrorNonRecursive(t *testing.T) {
	conn := newFakeConn()
	local := t.TempDir()

	result, err := testMirror(conn, local).Download(context.Background(), []string{"STATE"}, MirrorOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"/geo/tiger/TIGER2023/", "STATE"}, conn.cwds())
	assert.NotContains(t, conn.log, "CDUP")
	assert.Equal(t, []string{filepath.Join(local, "STATE", "tl_2023_us_state.zip")}, result.DownloadedFiles)
	assert.NoDirExists(t, filepath.Join(local, "STATE", "extra"))
	assert.Equal(t, "QUIT", conn.log[len(conn.log)-1])

	data, err := os.ReadFile(filepath.Join(local, "STATE", "tl_2023_us_state.zip"))
	require.NoError(t, err)
	assert.Equal(t, "us-state", string(data))
	assert.Equal(t, int64(len("us-state")), result.TotalSizeBytes)
}

func TestMirrorRecursiveReturnsToParent(t *testing.T) {
	conn := newFakeConn()
	local := t.TempDir()

	result, err := testMirror(conn, local).Download(context.Background(), []string{"/STATE", "./PLACE"}, MirrorOptions{Recursive: true})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/geo/tiger/TIGER2023/", "STATE", "extra", "older",
		"/geo/tiger/TIGER2023/", "PLACE",
	}, conn.cwds())
	assert.ElementsMatch(t, []string{
		filepath.Join(local, "STATE", "tl_2023_us_state.zip"),
		filepath.Join(local, "STATE", "extra", "tl_2023_06_extra.zip"),
		filepath.Join(local, "STATE", "older", "tl_2022_06_older.zip"),
		filepath.Join(local, "PLACE", "tl_2023_06_place.zip"),
		filepath.Join(local, "PLACE", "tl_2023_36_place.zip"),
	}, result.DownloadedFiles)

	data, err := os.ReadFile(filepath.Join(local, "STATE", "older", "tl_2022_06_older.zip"))
	require.NoError(t, err)
	assert.Equal(t, "older", string(data))
}

func TestMirrorSkipExisting(t *testing.T) {
	conn := newFakeConn()
	local := t.TempDir()
	existing := filepath.Join(local, "PLACE", "tl_2023_06_place.zip")
	require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0o755))
	require.NoError(t, os.WriteFile(existing, []byte("kept"), 0o644))

	result, err := testMirror(conn, local).Download(context.Background(), []string{"PLACE"}, MirrorOptions{SkipExisting: true})
	require.NoError(t, err)

	assert.Equal(t, []string{existing}, result.SkippedFiles)
	assert.Len(t, result.DownloadedFiles, 1)
	assert.NotContains(t, conn.log, "RETR /geo/tiger/TIGER2023/PLACE/tl_2023_06_place.zip")

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "kept", string(data))
}

func TestMirrorMissingDataset(t *testing.T) {
	conn := newFakeConn()

	_, err := testMirror(conn, t.TempDir()).Download(context.Background(), []string{"ROADS"}, MirrorOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ROADS")
	assert.Equal(t, "QUIT", conn.log[len(conn.log)-1])
}

func TestMirrorDialError(t *testing.T) {
	m := testMirror(newFakeConn(), t.TempDir())
	m.Dialer = func(ctx context.Context, addr string, timeout time.Duration) (Conn, error) {
		assert.Equal(t, defaultFTPTimeout, timeout)
		return nil, errors.New("connection refused")
	}

	_, err := m.Download(context.Background(), []string{"STATE"}, MirrorOptions{})
	assert.EqualError(t, err, "connection refused")
}

func TestStateFIPS(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"CA", "06"},
		{"ca", "06"},
		{"California", "06"},
		{"  new   york ", "36"},
		{"06", "06"},
		{"72", "72"},
		{"Puerto Rico", "72"},
		{"District of Columbia", "11"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := StateFIPS(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := StateFIPS("Atlantis")
	var notFound *StateNotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestLookupState(t *testing.T) {
	s, err := LookupState("11")
	require.NoError(t, err)
	assert.Equal(t, "DC", s.Abbr)

	_, err = LookupState("")
	assert.Error(t, err)
}

func placeDir(t *testing.T) string {
	t.Helper()
	local := t.TempDir()
	dir := filepath.Join(local, "PLACE")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range []string{"tl_2023_36_place.zip", "tl_2023_06_place.zip"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	return local
}

func TestLocateShapefileByState(t *testing.T) {
	local := placeDir(t)
	want := filepath.Join(local, "PLACE", "tl_2023_06_place.zip")

	for _, state := range []string{"CA", "California", "06"} {
		got, err := LocateShapefile(local, "PLACE", state, nil)
		require.NoError(t, err, state)
		assert.Equal(t, want, got, state)
	}

	_, err := LocateShapefile(local, "PLACE", "01", nil)
	var notFound *ShapefileNotFoundError
	assert.True(t, errors.As(err, &notFound))

	_, err = LocateShapefile(local, "PLACE", "Narnia", nil)
	var stateErr *StateNotFoundError
	assert.True(t, errors.As(err, &stateErr))
}

func TestLocateShapefileFirstFile(t *testing.T) {
	local := placeDir(t)

	got, err := LocateShapefile(local, "PLACE", "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(local, "PLACE", "tl_2023_06_place.zip"), got)

	empty := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(empty, "COUNTY"), 0o755))
	_, err = LocateShapefile(empty, "COUNTY", "", nil)
	var notFound *ShapefileNotFoundError
	assert.True(t, errors.As(err, &notFound))
}

// writeZippedShapefile builds a point shapefile with a NAME field and packs
// its .shp/.shx/.dbf parts into zipPath.
func writeZippedShapefile(t *testing.T, zipPath string, names []string) {
	t.Helper()
	work := t.TempDir()
	base := filepath.Join(work, "tl_2023_06_place")

	w, err := shp.Create(base+".shp", shp.POINT)
	require.NoError(t, err)
	w.SetFields([]shp.Field{shp.StringField("NAME", 25)})
	for i, name := range names {
		w.Write(&shp.Point{X: float64(i), Y: float64(i) * 2})
		w.WriteAttribute(i, 0, name)
	}
	w.Close()

	out, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		data, err := os.ReadFile(base + ext)
		require.NoError(t, err)
		fw, err := zw.Create("tl_2023_06_place" + ext)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())
}

func TestReadShapefile(t *testing.T) {
	local := t.TempDir()
	dir := filepath.Join(local, "PLACE")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	writeZippedShapefile(t, filepath.Join(dir, "tl_2023_06_place.zip"), []string{"Fresno", "Oakland"})

	ft, err := ReadShapefile(local, "PLACE", "California")
	require.NoError(t, err)

	assert.Equal(t, "Point", ft.ShapeType)
	assert.Equal(t, []string{"NAME"}, ft.Fields)
	require.Len(t, ft.Features, 2)
	assert.Equal(t, "Oakland", ft.Features[1].Attributes["NAME"])
	p, ok := ft.Features[1].Geometry.(*shp.Point)
	require.True(t, ok)
	assert.Equal(t, 2.0, p.Y)
}
