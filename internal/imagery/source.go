package imagery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/handiism/tilefetch/internal/geotiff"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"
)

// blobSchemes are the raster locator schemes read from object storage.
var blobSchemes = map[string]struct{}{
	"s3":  {},
	"gs":  {},
	"mem": {},
}

// BucketOpener opens an object storage bucket from a URL such as
// "s3://bucket" or "gs://bucket".
type BucketOpener func(ctx context.Context, urlstr string) (*blob.Bucket, error)

// splitBlobLocator splits "s3://bucket/dir/scene.tif" into the bucket URL
// and the object key. ok is false for local paths.
func splitBlobLocator(locator string) (bucketURL, key string, ok bool) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", "", false
	}
	if _, known := blobSchemes[strings.ToLower(u.Scheme)]; !known {
		return "", "", false
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", false
	}
	return u.Scheme + "://" + u.Host, key, true
}

// readRaster returns the bytes and georeferencing of a raster locator,
// either a local path or an object in a bucket.
func (s *Raster) readRaster(ctx context.Context, locator string) ([]byte, *geotiff.Georef, error) {
	bucketURL, key, remote := splitBlobLocator(locator)
	if !remote {
		geo, err := geotiff.ReadFile(locator, s.cfg.DefaultEPSG)
		if err != nil {
			return nil, nil, err
		}
		data, err := os.ReadFile(locator)
		if err != nil {
			return nil, nil, err
		}
		return data, geo, nil
	}

	if q := strings.TrimPrefix(s.cfg.BucketQuery, "?"); q != "" {
		bucketURL += "?" + q
	}
	bucket, err := s.cfg.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open bucket %s: %w", bucketURL, err)
	}
	defer bucket.Close()

	data, err := bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, nil, fmt.Errorf("%s: %w", locator, os.ErrNotExist)
		}
		return nil, nil, fmt.Errorf("read %s: %w", locator, err)
	}

	geo, err := geotiff.ReadTags(bytes.NewReader(data))
	if errors.Is(err, geotiff.ErrNotGeoreferenced) {
		geo, err = readRemoteWorldFile(ctx, bucket, key)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", locator, err)
	}
	if geo.EPSG == 0 {
		geo.EPSG = geotiff.NormalizeEPSG(s.cfg.DefaultEPSG)
	}
	return data, geo, nil
}

func readRemoteWorldFile(ctx context.Context, bucket *blob.Bucket, key string) (*geotiff.Georef, error) {
	for _, name := range geotiff.WorldFileNames(key) {
		data, err := bucket.ReadAll(ctx, path.Clean(name))
		if err != nil {
			if gcerrors.Code(err) == gcerrors.NotFound {
				continue
			}
			return nil, err
		}
		return geotiff.ParseWorldFile(bytes.NewReader(data))
	}
	return nil, geotiff.ErrNotGeoreferenced
}
