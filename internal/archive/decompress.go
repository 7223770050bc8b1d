package archive

import (
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Decompress expands a compressed file in place: foo.tar.gz becomes
// foo.tar and the compressed original is removed. The codec is picked by
// filename extension; an extension we have no codec for is an error.
func Decompress(path string) (string, error) {
	ext := filepath.Ext(path)
	out := strings.TrimSuffix(path, ext)

	in, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer in.Close()

	var reader io.Reader
	switch ext {
	case ".zst":
		zr, err := zstd.NewReader(in)
		if err != nil {
			return "", fmt.Errorf("creating zstd reader for %s: %w", filepath.Base(path), err)
		}
		defer zr.Close()
		reader = zr
	case ".xz":
		xr, err := xz.NewReader(in)
		if err != nil {
			return "", fmt.Errorf("creating xz reader for %s: %w", filepath.Base(path), err)
		}
		reader = xr
	case ".bz2":
		reader = bzip2.NewReader(in)
	case ".gz":
		gr, err := gzip.NewReader(in)
		if err != nil {
			return "", fmt.Errorf("creating gzip reader for %s: %w", filepath.Base(path), err)
		}
		defer gr.Close()
		reader = gr
	default:
		return "", fmt.Errorf("unsupported compression extension %q on %s", ext, filepath.Base(path))
	}

	dst, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", filepath.Base(out), err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, reader); err != nil {
		return "", fmt.Errorf("decompressing %s: %w", filepath.Base(path), err)
	}

	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("removing %s: %w", filepath.Base(path), err)
	}

	return out, nil
}
