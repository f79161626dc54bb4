package pdf

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfkb/pdfkb/storage"
)

const (
	dataURLPrefix = "data:image/"
	dataURLSuffix = ";base64,"
)

// decodeDataURL splits an inline image data URL into its declared
// extension and raw bytes. Anything that is not a base64 image data URL
// reports ok=false and is skipped by the caller.
func decodeDataURL(src string) (ext string, data []byte, ok bool) {
	if !strings.HasPrefix(src, dataURLPrefix) {
		return "", nil, false
	}

	end := strings.Index(src, dataURLSuffix)
	if end < 0 {
		return "", nil, false
	}

	ext = src[len(dataURLPrefix):end]
	if i := strings.LastIndex(ext, "/"); i >= 0 {
		ext = ext[i+1:]
	}

	data, err := base64.StdEncoding.DecodeString(src[end+len(dataURLSuffix):])
	if err != nil {
		return "", nil, false
	}

	return ext, data, true
}

// imageSaver writes decoded page images to the image directory. Files are
// named by the MD5 of their bytes, so reprocessing the same PDF overwrites
// images instead of duplicating them.
type imageSaver struct {
	dir     string
	archive storage.DataStore
}

func (s *imageSaver) save(ctx context.Context, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}

	sum := md5.Sum(data)
	name := hex.EncodeToString(sum[:]) + "." + ext
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}

	if s.archive != nil {
		err := s.archive.Put(ctx, name, bytes.NewReader(data),
			storage.WithContentType("image/"+ext))
		if err != nil {
			return "", err
		}
	}

	return path, nil
}
