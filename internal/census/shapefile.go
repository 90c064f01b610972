package census

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jonas-p/go-shp"
)

type Feature struct {
	Geometry   shp.Shape         `json:"geometry"`
	Attributes map[string]string `json:"attributes"`
}

// FeatureTable is the content of one shapefile: geometries plus their
// attribute rows.
type FeatureTable struct {
	Path      string    `json:"path"`
	ShapeType string    `json:"shape_type"`
	Fields    []string  `json:"fields"`
	Features  []Feature `json:"features"`
}

type ShapefileNotFoundError struct {
	Dir   string
	State string
}

func (e *ShapefileNotFoundError) Error() string {
	if e.State != "" {
		return fmt.Sprintf("no shapefile for state %s in %s", e.State, e.Dir)
	}
	return fmt.Sprintf("no files found in %s", e.Dir)
}

// LocateShapefile picks the archive to open in localDir/dataset. With a state
// it returns the first file whose name contains _<fips>_; without one it
// returns the first file of the directory.
func LocateShapefile(localDir, dataset, state string, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir := filepath.Join(localDir, dataset)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("list %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	if state == "" {
		if len(names) == 0 {
			return "", &ShapefileNotFoundError{Dir: dir}
		}
		if len(names) > 1 {
			logger.Warn("multiple files found, opening the first one", "dir", dir, "file", names[0], "count", len(names))
		}
		return filepath.Join(dir, names[0]), nil
	}

	fips, err := StateFIPS(state)
	if err != nil {
		return "", err
	}
	marker := "_" + fips + "_"
	for _, name := range names {
		if strings.Contains(name, marker) {
			return filepath.Join(dir, name), nil
		}
	}
	return "", &ShapefileNotFoundError{Dir: dir, State: state}
}

// ReadShapefile locates and opens a zipped shapefile of a downloaded dataset.
func ReadShapefile(localDir, dataset, state string) (*FeatureTable, error) {
	path, err := LocateShapefile(localDir, dataset, state, nil)
	if err != nil {
		return nil, err
	}
	return OpenZippedShapefile(path)
}

// OpenZippedShapefile reads every feature of a .zip holding one shapefile.
func OpenZippedShapefile(path string) (*FeatureTable, error) {
	r, err := shp.OpenZip(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	fields := r.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.String()
	}

	ft := &FeatureTable{Path: path, Fields: names, Features: []Feature{}}
	for r.Next() {
		_, shape := r.Shape()
		if ft.ShapeType == "" {
			ft.ShapeType = shapeTypeName(shape)
		}
		attrs := make(map[string]string, len(names))
		for i, name := range names {
			attrs[name] = r.Attribute(i)
		}
		ft.Features = append(ft.Features, Feature{Geometry: shape, Attributes: attrs})
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ft, nil
}

func shapeTypeName(s shp.Shape) string {
	switch s.(type) {
	case *shp.Point:
		return "Point"
	case *shp.PolyLine:
		return "PolyLine"
	case *shp.Polygon:
		return "Polygon"
	case *shp.MultiPoint:
		return "MultiPoint"
	case *shp.Null:
		return "Null"
	default:
		return strings.TrimPrefix(fmt.Sprintf("%T", s), "*shp.")
	}
}
