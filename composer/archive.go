package composer

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/brave/ios-buildtools/internal/ctxlog"
)

var ErrUnsafeArchivePath = errors.New("archive entry escapes destination")

// extractProject copies the entries below prefix in the gzip tarball at
// archivePath into dest, overwriting files already there. Entries outside
// prefix are ignored.
func extractProject(ctx context.Context, archivePath, prefix, dest string) (int, error) {
	logger := ctxlog.FromContext(ctx)

	f, err := os.Open(archivePath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", archivePath, err)
	}
	defer zr.Close()

	prefix = strings.Trim(path.Clean(prefix), "/")
	count := 0
	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("%s: %w", archivePath, err)
		}

		name := path.Clean(hdr.Name)
		if !filepath.IsLocal(filepath.FromSlash(name)) {
			return count, fmt.Errorf("%w: %s", ErrUnsafeArchivePath, hdr.Name)
		}
		if name != prefix && !strings.HasPrefix(name, prefix+"/") {
			continue
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(name, prefix), "/")
		if rel == "" {
			continue
		}
		target := filepath.Join(dest, filepath.FromSlash(rel))

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return count, err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return count, err
			}
			count++
		default:
			logger.Debug("skipping archive entry", "name", hdr.Name, "type", string(hdr.Typeflag))
		}
	}
	return count, nil
}

func writeEntry(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	if perm == 0 {
		perm = 0644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
