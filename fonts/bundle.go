package fonts

import (
	"archive/zip"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"go.uber.org/zap"

	"ogcard/archive"
)

// fonts larger than that are certainly not something we want to parse
const maxFontSize = 64 << 20

func isFontFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ttf", ".otf":
		return true
	}
	return false
}

// fromData inspects font file and builds descriptor, family name and
// variation come from the font itself.
func fromData(data []byte) (Font, error) {
	family, weight, style, err := Inspect(data)
	if err != nil {
		return Font{}, err
	}
	f := NewFont(family, data, weight, style)
	if err := f.Validate(); err != nil {
		return Font{}, err
	}
	return f, nil
}

// LoadArchive loads every ttf and otf file from zip bundle. Files which
// cannot be used are logged and skipped.
func LoadArchive(path string, log *zap.Logger) ([]Font, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("fonts")

	var res []Font
	err := archive.Walk(path, "", func(arc string, f *zip.File) error {
		if !isFontFile(f.Name) {
			return nil
		}
		data, err := archive.ReadFile(f, maxFontSize)
		if err != nil {
			log.Warn("Unable to read font from bundle", zap.String("archive", arc), zap.String("file", f.Name), zap.Error(err))
			return nil
		}
		font, err := fromData(data)
		if err != nil {
			log.Warn("Skipping font from bundle", zap.String("archive", arc), zap.String("file", f.Name), zap.Error(err))
			return nil
		}
		log.Debug("Font loaded", zap.String("file", f.Name), zap.String("family", font.Name),
			zap.Int("weight", int(font.Weight)), zap.Stringer("style", font.Style))
		res = append(res, font)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to load fonts from %s: %w", path, err)
	}
	return res, nil
}

// LoadDir loads fonts from directory tree, files are visited in natural
// order so results do not depend on file system.
func LoadDir(dir string, log *zap.Logger) ([]Font, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("fonts")

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isFontFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to scan font directory %s: %w", dir, err)
	}
	sort.Sort(natural.StringSlice(files))

	var res []Font
	for _, name := range files {
		data, err := os.ReadFile(name)
		if err != nil {
			log.Warn("Unable to read font", zap.String("file", name), zap.Error(err))
			continue
		}
		font, err := fromData(data)
		if err != nil {
			log.Warn("Skipping font", zap.String("file", name), zap.Error(err))
			continue
		}
		log.Debug("Font loaded", zap.String("file", name), zap.String("family", font.Name),
			zap.Int("weight", int(font.Weight)), zap.Stringer("style", font.Style))
		res = append(res, font)
	}
	return res, nil
}
