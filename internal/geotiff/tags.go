package geotiff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// TIFF tags read by this package.
const (
	tagImageWidth          = 256
	tagImageLength         = 257
	tagModelPixelScale     = 33550
	tagModelTiepoint       = 33922
	tagModelTransformation = 34264
	tagGeoKeyDirectory     = 34735
)

// GeoKeys read from the GeoKeyDirectory.
const (
	keyModelType      = 1024
	keyRasterType     = 1025
	keyGeographicType = 2048
	keyProjectedCS    = 3072

	modelTypeProjected  = 1
	modelTypeGeographic = 2
	rasterPixelIsPoint  = 2
)

// TIFF field types.
const (
	typeShort  = 3
	typeLong   = 4
	typeDouble = 12
)

var errNotTIFF = errors.New("not a TIFF file")

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	// raw holds the 4 inline value bytes, or the offset of the values.
	raw [4]byte
}

type tagReader struct {
	r     io.ReaderAt
	order binary.ByteOrder
}

// ReadTags reads the georeferencing of a classic (non-Big) TIFF from its
// first IFD.
func ReadTags(r io.ReaderAt) (*Georef, error) {
	var head [8]byte
	if _, err := r.ReadAt(head[:], 0); err != nil {
		return nil, fmt.Errorf("%w: %v", errNotTIFF, err)
	}

	tr := &tagReader{r: r}
	switch string(head[:2]) {
	case "II":
		tr.order = binary.LittleEndian
	case "MM":
		tr.order = binary.BigEndian
	default:
		return nil, errNotTIFF
	}
	if tr.order.Uint16(head[2:4]) != 42 {
		return nil, errNotTIFF
	}

	entries, err := tr.readIFD(int64(tr.order.Uint32(head[4:8])))
	if err != nil {
		return nil, err
	}

	g := &Georef{}
	var (
		scale, tiepoint, transform []float64
		geoKeys                    []uint16
	)
	for _, e := range entries {
		switch e.tag {
		case tagImageWidth:
			v, err := tr.uints(e)
			if err == nil && len(v) > 0 {
				g.Width = int(v[0])
			}
		case tagImageLength:
			v, err := tr.uints(e)
			if err == nil && len(v) > 0 {
				g.Height = int(v[0])
			}
		case tagModelPixelScale:
			if scale, err = tr.doubles(e); err != nil {
				return nil, err
			}
		case tagModelTiepoint:
			if tiepoint, err = tr.doubles(e); err != nil {
				return nil, err
			}
		case tagModelTransformation:
			if transform, err = tr.doubles(e); err != nil {
				return nil, err
			}
		case tagGeoKeyDirectory:
			v, err := tr.uints(e)
			if err != nil {
				return nil, err
			}
			geoKeys = make([]uint16, len(v))
			for i, n := range v {
				geoKeys[i] = uint16(n)
			}
		}
	}

	switch {
	case len(transform) >= 16:
		if transform[1] != 0 || transform[4] != 0 {
			return nil, ErrRotated
		}
		g.PixelWidth, g.OriginX = transform[0], transform[3]
		g.PixelHeight, g.OriginY = transform[5], transform[7]
	case len(scale) >= 2 && len(tiepoint) >= 6:
		i, j, x, y := tiepoint[0], tiepoint[1], tiepoint[3], tiepoint[4]
		g.PixelWidth = scale[0]
		g.PixelHeight = -scale[1]
		g.OriginX = x - i*g.PixelWidth
		g.OriginY = y - j*g.PixelHeight
	default:
		return nil, ErrNotGeoreferenced
	}

	keys := parseGeoKeys(geoKeys)
	if keys[keyRasterType] == rasterPixelIsPoint {
		// Tie points address pixel centres; shift to the outer corner.
		g.OriginX -= g.PixelWidth / 2
		g.OriginY -= g.PixelHeight / 2
	}
	switch keys[keyModelType] {
	case modelTypeProjected:
		g.EPSG = NormalizeEPSG(keys[keyProjectedCS])
	case modelTypeGeographic:
		g.EPSG = keys[keyGeographicType]
	default:
		if code := keys[keyProjectedCS]; code != 0 {
			g.EPSG = NormalizeEPSG(code)
		} else {
			g.EPSG = keys[keyGeographicType]
		}
	}

	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// parseGeoKeys returns the inline SHORT values of a GeoKeyDirectory.
// Keys stored in other tags (doubles, ASCII) are skipped.
func parseGeoKeys(dir []uint16) map[int]int {
	keys := make(map[int]int)
	if len(dir) < 4 {
		return keys
	}
	n := int(dir[3])
	for k := 0; k < n; k++ {
		base := 4 + k*4
		if base+3 >= len(dir) {
			break
		}
		id, location, value := dir[base], dir[base+1], dir[base+3]
		if location == 0 {
			keys[int(id)] = int(value)
		}
	}
	return keys
}

func (tr *tagReader) readIFD(offset int64) ([]ifdEntry, error) {
	var countBuf [2]byte
	if _, err := tr.r.ReadAt(countBuf[:], offset); err != nil {
		return nil, fmt.Errorf("read IFD: %w", err)
	}
	n := int(tr.order.Uint16(countBuf[:]))

	buf := make([]byte, n*12)
	if _, err := tr.r.ReadAt(buf, offset+2); err != nil {
		return nil, fmt.Errorf("read IFD entries: %w", err)
	}

	entries := make([]ifdEntry, n)
	for i := range entries {
		b := buf[i*12:]
		entries[i].tag = tr.order.Uint16(b[0:2])
		entries[i].typ = tr.order.Uint16(b[2:4])
		entries[i].count = tr.order.Uint32(b[4:8])
		copy(entries[i].raw[:], b[8:12])
	}
	return entries, nil
}

// value returns the bytes of an entry's values, following the offset when
// they do not fit inline.
func (tr *tagReader) value(e ifdEntry, size int) ([]byte, error) {
	total := int(e.count) * size
	if total <= 4 {
		return e.raw[:total], nil
	}
	if e.count > 1<<20 {
		return nil, fmt.Errorf("tag %d: implausible count %d", e.tag, e.count)
	}
	buf := make([]byte, total)
	if _, err := tr.r.ReadAt(buf, int64(tr.order.Uint32(e.raw[:]))); err != nil {
		return nil, fmt.Errorf("tag %d: %w", e.tag, err)
	}
	return buf, nil
}

func (tr *tagReader) uints(e ifdEntry) ([]uint32, error) {
	switch e.typ {
	case typeShort:
		b, err := tr.value(e, 2)
		if err != nil {
			return nil, err
		}
		out := make([]uint32, e.count)
		for i := range out {
			out[i] = uint32(tr.order.Uint16(b[i*2:]))
		}
		return out, nil
	case typeLong:
		b, err := tr.value(e, 4)
		if err != nil {
			return nil, err
		}
		out := make([]uint32, e.count)
		for i := range out {
			out[i] = tr.order.Uint32(b[i*4:])
		}
		return out, nil
	default:
		return nil, fmt.Errorf("tag %d: unexpected type %d", e.tag, e.typ)
	}
}

func (tr *tagReader) doubles(e ifdEntry) ([]float64, error) {
	if e.typ != typeDouble {
		return nil, fmt.Errorf("tag %d: unexpected type %d", e.tag, e.typ)
	}
	b, err := tr.value(e, 8)
	if err != nil {
		return nil, err
	}
	out := make([]float64, e.count)
	for i := range out {
		out[i] = math.Float64frombits(tr.order.Uint64(b[i*8:]))
	}
	return out, nil
}
