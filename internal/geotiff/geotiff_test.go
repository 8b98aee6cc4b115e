package geotiff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/tiff"
)

type testTag struct {
	tag   uint16
	typ   uint16
	value []byte
	count uint32
}

func shortsTag(tag uint16, v ...uint16) testTag {
	b := make([]byte, 2*len(v))
	for i, n := range v {
		binary.LittleEndian.PutUint16(b[i*2:], n)
	}
	return testTag{tag: tag, typ: typeShort, value: b, count: uint32(len(v))}
}

func doublesTag(tag uint16, v ...float64) testTag {
	b := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(f))
	}
	return testTag{tag: tag, typ: typeDouble, value: b, count: uint32(len(v))}
}

// buildTIFF lays out a little-endian TIFF header with one IFD holding tags.
func buildTIFF(tags ...testTag) []byte {
	var buf bytes.Buffer
	buf.WriteString("II")
	binary.Write(&buf, binary.LittleEndian, uint16(42))
	binary.Write(&buf, binary.LittleEndian, uint32(8))

	dataOffset := 8 + 2 + 12*len(tags) + 4
	var data bytes.Buffer

	binary.Write(&buf, binary.LittleEndian, uint16(len(tags)))
	for _, tg := range tags {
		binary.Write(&buf, binary.LittleEndian, tg.tag)
		binary.Write(&buf, binary.LittleEndian, tg.typ)
		binary.Write(&buf, binary.LittleEndian, tg.count)
		if len(tg.value) <= 4 {
			var inline [4]byte
			copy(inline[:], tg.value)
			buf.Write(inline[:])
			continue
		}
		binary.Write(&buf, binary.LittleEndian, uint32(dataOffset+data.Len()))
		data.Write(tg.value)
	}
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	buf.Write(data.Bytes())

	return buf.Bytes()
}

func TestReadTags_ScaleTiepoint(t *testing.T) {
	raw := buildTIFF(
		shortsTag(tagImageWidth, 512),
		shortsTag(tagImageLength, 256),
		doublesTag(tagModelPixelScale, 0.5, 0.25, 0),
		doublesTag(tagModelTiepoint, 0, 0, 0, -10, 20, 0),
		shortsTag(tagGeoKeyDirectory,
			1, 1, 0, 2,
			keyModelType, 0, 1, modelTypeGeographic,
			keyGeographicType, 0, 1, 4326,
		),
	)

	g, err := ReadTags(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadTags() error = %v", err)
	}

	if g.OriginX != -10 || g.OriginY != 20 {
		t.Errorf("origin = (%v, %v), want (-10, 20)", g.OriginX, g.OriginY)
	}
	if g.PixelWidth != 0.5 || g.PixelHeight != -0.25 {
		t.Errorf("pixel size = (%v, %v), want (0.5, -0.25)", g.PixelWidth, g.PixelHeight)
	}
	if g.EPSG != EPSG4326 {
		t.Errorf("EPSG = %d, want 4326", g.EPSG)
	}
	if g.Width != 512 || g.Height != 256 {
		t.Errorf("size = %dx%d, want 512x256", g.Width, g.Height)
	}

	px, py := g.WorldToPixel(-9, 19.5)
	if px != 2 || py != 2 {
		t.Errorf("WorldToPixel() = (%v, %v), want (2, 2)", px, py)
	}
}

func TestReadTags_ProjectedPixelIsPoint(t *testing.T) {
	raw := buildTIFF(
		doublesTag(tagModelPixelScale, 10, 10, 0),
		doublesTag(tagModelTiepoint, 0, 0, 0, 1000, 2000, 0),
		shortsTag(tagGeoKeyDirectory,
			1, 1, 0, 3,
			keyModelType, 0, 1, modelTypeProjected,
			keyRasterType, 0, 1, rasterPixelIsPoint,
			keyProjectedCS, 0, 1, 3857,
		),
	)

	g, err := ReadTags(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadTags() error = %v", err)
	}
	if g.EPSG != EPSG3857 {
		t.Errorf("EPSG = %d, want 3857", g.EPSG)
	}
	if g.OriginX != 995 || g.OriginY != 2005 {
		t.Errorf("origin = (%v, %v), want (995, 2005)", g.OriginX, g.OriginY)
	}
}

func TestReadTags_Transformation(t *testing.T) {
	raw := buildTIFF(doublesTag(tagModelTransformation,
		2, 0, 0, 100,
		0, -2, 0, 50,
		0, 0, 0, 0,
		0, 0, 0, 1,
	))

	g, err := ReadTags(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadTags() error = %v", err)
	}
	if g.OriginX != 100 || g.OriginY != 50 || g.PixelWidth != 2 || g.PixelHeight != -2 {
		t.Errorf("ReadTags() = %+v", g)
	}
}

func TestReadTags_Rotated(t *testing.T) {
	raw := buildTIFF(doublesTag(tagModelTransformation,
		2, 1, 0, 100,
		0, -2, 0, 50,
		0, 0, 0, 0,
		0, 0, 0, 1,
	))

	if _, err := ReadTags(bytes.NewReader(raw)); !errors.Is(err, ErrRotated) {
		t.Errorf("ReadTags() error = %v, want ErrRotated", err)
	}
}

func TestReadTags_NotTIFF(t *testing.T) {
	if _, err := ReadTags(strings.NewReader("PK\x03\x04 not a tiff")); err == nil {
		t.Error("ReadTags() on a zip header should fail")
	}
}

func TestParseWorldFile(t *testing.T) {
	g, err := ParseWorldFile(strings.NewReader("0.5\n0\n0\n-0.5\n10.25\n19.75\n"))
	if err != nil {
		t.Fatalf("ParseWorldFile() error = %v", err)
	}
	if g.OriginX != 10 || g.OriginY != 20 {
		t.Errorf("origin = (%v, %v), want (10, 20)", g.OriginX, g.OriginY)
	}

	if _, err := ParseWorldFile(strings.NewReader("1\n0\n")); err == nil {
		t.Error("short world file should fail")
	}
	if _, err := ParseWorldFile(strings.NewReader("1\n0.1\n0\n-1\n0\n0\n")); !errors.Is(err, ErrRotated) {
		t.Errorf("rotated world file error = %v, want ErrRotated", err)
	}
}

func TestReadFile_WorldFileFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mosaic.tif")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := tiff.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 4)), nil); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if _, err := ReadFile(path, EPSG4326); !errors.Is(err, ErrNotGeoreferenced) {
		t.Fatalf("ReadFile() without sidecar error = %v, want ErrNotGeoreferenced", err)
	}

	wld := "1\n0\n0\n-1\n0.5\n3.5\n"
	if err := os.WriteFile(filepath.Join(dir, "mosaic.tfw"), []byte(wld), 0644); err != nil {
		t.Fatal(err)
	}

	g, err := ReadFile(path, 900913)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if g.EPSG != EPSG3857 {
		t.Errorf("EPSG = %d, want default 3857", g.EPSG)
	}
	if g.OriginX != 0 || g.OriginY != 4 {
		t.Errorf("origin = (%v, %v), want (0, 4)", g.OriginX, g.OriginY)
	}
}
