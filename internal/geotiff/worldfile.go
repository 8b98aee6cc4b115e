package geotiff

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ReadFile returns the georeferencing of the raster at path.
//
// GeoTIFF tags are preferred; when the file has none, a world file sidecar
// (".tfw", ".tifw", ".tiffw" or ".wld") is used instead and defaultEPSG is
// assumed since world files carry no CRS. A file declaring no CRS in its tags
// also gets defaultEPSG.
func ReadFile(path string, defaultEPSG int) (*Georef, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := ReadTags(f)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotGeoreferenced):
		wf, ok := findWorldFile(path)
		if !ok {
			return nil, fmt.Errorf("%s: %w", path, ErrNotGeoreferenced)
		}
		if g, err = ReadWorldFile(wf); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if g.EPSG == 0 {
		g.EPSG = NormalizeEPSG(defaultEPSG)
	}
	return g, nil
}

// WorldFileNames returns the sidecar names tried for a raster, in order.
func WorldFileNames(rasterPath string) []string {
	base := strings.TrimSuffix(rasterPath, filepath.Ext(rasterPath))
	return []string{
		base + ".tfw", base + ".TFW",
		base + ".tifw", base + ".tiffw",
		base + ".wld", rasterPath + ".wld",
	}
}

func findWorldFile(rasterPath string) (string, bool) {
	for _, c := range WorldFileNames(rasterPath) {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, true
		}
	}
	return "", false
}

// ReadWorldFile parses an ESRI world file.
//
// The six lines are: pixel width, row rotation, column rotation, pixel
// height, and the x/y of the upper-left pixel's centre.
func ReadWorldFile(path string) (*Georef, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := ParseWorldFile(f)
	if err != nil {
		return nil, fmt.Errorf("world file %s: %w", path, err)
	}
	return g, nil
}

// ParseWorldFile parses world file contents read from r.
func ParseWorldFile(r io.Reader) (*Georef, error) {
	var vals []float64
	sc := bufio.NewScanner(r)
	for sc.Scan() && len(vals) < 6 {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(vals) < 6 {
		return nil, fmt.Errorf("want 6 values, got %d", len(vals))
	}

	a, d, b, e, c, fy := vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]
	if d != 0 || b != 0 {
		return nil, ErrRotated
	}

	g := &Georef{
		PixelWidth:  a,
		PixelHeight: e,
		OriginX:     c - a/2,
		OriginY:     fy - e/2,
	}
	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}
