// Package archive walks zip archives: font bundles and zipped markup sources.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"

	"golang.org/x/text/encoding"
)

// WalkFunc is called for every regular file of the archive whose name starts
// with requested prefix. The archive argument is path passed to Walk.
// Returning an error stops the walk and Walk returns it unchanged.
type WalkFunc func(archive string, file *zip.File) error

// Walk visits files of the archive in stored order. An entry with absolute
// path or ".." component aborts the walk.
func Walk(archive, prefix string, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if err := walkFn(archive, f); err != nil {
			return err
		}
	}
	return nil
}

// DecodeName returns entry name. Names not flagged as UTF-8 are decoded with
// cp when it is not nil, on decoding failure raw name is returned together
// with the error.
func DecodeName(f *zip.File, cp encoding.Encoding) (string, error) {
	name := f.FileHeader.Name
	if cp == nil || !f.FileHeader.NonUTF8 {
		return name, nil
	}
	decoded, err := cp.NewDecoder().String(name)
	if err != nil {
		return name, fmt.Errorf("unable to decode entry name %q: %w", name, err)
	}
	return decoded, nil
}

// ReadFile reads entry content refusing entries larger than limit bytes.
func ReadFile(f *zip.File, limit int64) ([]byte, error) {
	if limit > 0 && f.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("zip entry %q is too large (%d bytes)", f.Name, f.UncompressedSize64)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("unable to open zip entry %q: %w", f.Name, err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if limit > 0 {
		// sizes in headers could lie
		r = io.LimitReader(rc, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read zip entry %q: %w", f.Name, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("zip entry %q is too large", f.Name)
	}
	return data, nil
}

func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
