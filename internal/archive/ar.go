package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const arMagic = "!<arch>\n"

// ExtractAr unpacks a System V / BSD style ar archive, as produced by
// dpkg-deb, into dest. Member names may carry a trailing slash (GNU
// variant); data sections are 2-byte aligned.
func ExtractAr(path, dest string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	magic := make([]byte, len(arMagic))
	if _, err := io.ReadFull(f, magic); err != nil {
		return fmt.Errorf("reading ar magic from %s: %w", filepath.Base(path), err)
	}
	if string(magic) != arMagic {
		return fmt.Errorf("%s is not an ar archive", filepath.Base(path))
	}

	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}

	for {
		header := make([]byte, 60)
		_, err := io.ReadFull(f, header)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading ar header in %s: %w", filepath.Base(path), err)
		}

		// Bytes 0-15: name, space padded, optionally slash terminated.
		name := strings.TrimRight(strings.TrimSpace(string(header[0:16])), "/")
		// Bytes 48-57: decimal size.
		size, err := strconv.ParseInt(strings.TrimSpace(string(header[48:58])), 10, 64)
		if err != nil {
			return fmt.Errorf("bad ar member size for %q in %s: %v", name, filepath.Base(path), err)
		}
		if name == "" {
			return fmt.Errorf("empty ar member name in %s", filepath.Base(path))
		}

		out, err := os.Create(filepath.Join(dest, name))
		if err != nil {
			return fmt.Errorf("creating ar member %s: %w", name, err)
		}
		if _, err := io.CopyN(out, f, size); err != nil {
			out.Close()
			return fmt.Errorf("extracting ar member %s from %s: %w", name, filepath.Base(path), err)
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("closing ar member %s: %w", name, err)
		}

		if size%2 != 0 {
			if _, err := f.Seek(1, io.SeekCurrent); err != nil {
				return fmt.Errorf("seeking in %s: %w", filepath.Base(path), err)
			}
		}
	}
}
