package inventory

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"bannercheck/internal/logger"
)

// ErrUnsafeArchivePath is returned for zip entries that would land outside the destination.
var ErrUnsafeArchivePath = errors.New("archive entry escapes extraction directory")

// Extract unpacks the zip at zipPath into dest, skipping junk folders.
// It returns the number of files written.
func Extract(zipPath, dest string, junk []string) (int, error) {
	const op = "Extract"

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to open archive %s: %w", op, zipPath, err)
	}
	defer r.Close()

	cleanDest := filepath.Clean(dest)
	count := 0
	for _, f := range r.File {
		if hasJunkSegment(f.Name, junk) {
			continue
		}
		target := filepath.Join(cleanDest, filepath.FromSlash(f.Name))
		if target != cleanDest && !strings.HasPrefix(target, cleanDest+string(filepath.Separator)) {
			return count, fmt.Errorf("%s: %w: %s", op, ErrUnsafeArchivePath, f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return count, fmt.Errorf("%s: failed to create %s: %w", op, target, err)
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return count, fmt.Errorf("%s: %w", op, err)
		}
		count++
	}
	return count, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err)
	}
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open entry %s: %w", f.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return dst.Close()
}

func hasJunkSegment(name string, junk []string) bool {
	for _, seg := range strings.Split(name, "/") {
		if isJunk(seg, junk) {
			return true
		}
	}
	return false
}

// Open builds an inventory from a folder or a .zip archive. For archives the
// content is extracted to a temporary folder that cleanup removes.
func Open(path string, opts Options) (inv *Inventory, cleanup func(), err error) {
	cleanup = func() {}
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		inv, err = Build(path, opts)
		return inv, cleanup, err
	}

	log := logger.WithComponent("inventory")
	tmp, err := os.MkdirTemp("", "bannercheck-*")
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to create extraction folder: %w", err)
	}
	cleanup = func() {
		if rmErr := os.RemoveAll(tmp); rmErr != nil {
			log.Warn().Err(rmErr).Str("dir", tmp).Msg("Failed to remove extraction folder")
		}
	}

	junk := opts.JunkDirs
	if junk == nil {
		junk = DefaultJunkDirs
	}
	n, err := Extract(path, tmp, junk)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	log.Info().Str("archive", path).Int("files", n).Msg("Archive extracted")

	inv, err = Build(tmp, opts)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return inv, cleanup, nil
}
