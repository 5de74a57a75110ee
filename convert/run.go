// Package convert implements render command: html sources to image files.
package convert

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"ogcard/archive"
	"ogcard/config"
	"ogcard/markup"
	"ogcard/response"
	"ogcard/state"
)

// maxSourceSize limits single html source read from archive.
const maxSourceSize = 16 << 20

// renderOptions are image parameters shared by all sources of a single run.
type renderOptions struct {
	format config.OutputFmt
	width  int
	height int
	emoji  config.EmojiType
	debug  bool
}

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("render")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	opts := renderOptions{
		format: env.Cfg.Image.Format,
		width:  env.Cfg.Image.Width,
		height: env.Cfg.Image.Height,
		emoji:  env.Cfg.Image.Emoji,
		debug:  env.Cfg.Image.Debug,
	}
	if name := cmd.String("format"); name != "" {
		if opts.format, err = config.ParseOutputFmt(strings.ToLower(name)); err != nil {
			log.Warn("Unknown output format requested, switching to configured one", zap.Error(err), zap.Stringer("format", env.Cfg.Image.Format))
			opts.format = env.Cfg.Image.Format
		}
	}
	if name := cmd.String("emoji"); name != "" {
		if opts.emoji, err = config.ParseEmojiType(name); err != nil {
			log.Warn("Unknown emoji provider requested, switching to configured one", zap.Error(err), zap.Stringer("emoji", env.Cfg.Image.Emoji))
			opts.emoji = env.Cfg.Image.Emoji
		}
	}
	if w := cmd.Int("width"); w > 0 {
		opts.width = int(w)
	}
	if h := cmd.Int("height"); h > 0 {
		opts.height = int(h)
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	cp := cmd.String("force-zip-cp")
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	if err := env.Engine.Init(ctx); err != nil {
		return fmt.Errorf("unable to initialize renderer: %w", err)
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst),
		zap.Stringer("format", opts.format), zap.Int("width", opts.width), zap.Int("height", opts.height))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, opts, log)
}

// process determines the input type (directory, archive, or single file) and
// processes accordingly. Source may point inside of an archive.
func process(ctx context.Context, src, dst string, opts renderOptions, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, opts, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processArchive(ctx, head, filepath.ToSlash(tail), "", dst, opts, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		isMarkup, err := isMarkupFile(head)
		if err != nil {
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if isMarkup && len(tail) == 0 {
			data, err := os.ReadFile(head)
			if err != nil {
				return fmt.Errorf("unable to read source: %w", err)
			}
			if err := processMarkup(ctx, data, filepath.Base(head), filepath.Dir(head), dst, opts, log); err != nil {
				log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
			}
			break
		}
		return fmt.Errorf("input was not recognized as html source (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir walks directory tree finding html files and archives and
// processes them in natural order of their paths.
func processDir(ctx context.Context, dir, dst string, opts renderOptions, log *zap.Logger) error {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.Sort(natural.StringSlice(paths))

	count := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		isArchive, err := isArchiveFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if isArchive {
			count++
			if err := processArchive(ctx, path, "", filepath.Dir(rel), dst, opts, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			continue
		}

		isMarkup, err := isMarkupFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if !isMarkup {
			log.Debug("Skipping file, not recognized as html or archive", zap.String("file", path))
			continue
		}
		count++

		data, err := os.ReadFile(path)
		if err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			continue
		}
		if err := processMarkup(ctx, data, rel, filepath.Dir(path), dst, opts, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
	}
	if count == 0 {
		log.Debug("Nothing to process", zap.String("dir", dir))
	}
	return nil
}

// processArchive renders html files inside archive under "pathIn" in stored
// order. Archived sources cannot reference local images.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, opts renderOptions, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	cp := state.EnvFromContext(ctx).CodePage

	return archive.Walk(path, pathIn, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		isMarkup, err := isMarkupInArchive(f)
		if err != nil {
			log.Warn("Skipping file in archive", zap.String("archive", arc), zap.String("path", f.Name), zap.Error(err))
			return nil
		}
		if !isMarkup {
			log.Debug("Skipping file, not recognized as html", zap.String("archive", arc), zap.String("file", f.Name))
			return nil
		}
		count++

		data, err := archive.ReadFile(f, maxSourceSize)
		if err != nil {
			log.Error("Unable to process file in archive", zap.String("archive", arc), zap.String("file", f.Name), zap.Error(err))
			return nil
		}
		name, err := archive.DecodeName(f, cp)
		if err != nil {
			n, _ := ianaindex.IANA.Name(cp)
			log.Warn("Unable to convert archive name from specified encoding",
				zap.String("charset", n), zap.String("path", f.Name), zap.Error(err))
		}
		if err := processMarkup(ctx, data, filepath.Join(pathOut, filepath.FromSlash(name)), "", dst, opts, log); err != nil {
			log.Error("Unable to process file in archive", zap.String("archive", arc), zap.String("file", f.Name), zap.Error(err))
		}
		return nil
	})
}

// processMarkup renders single html source. "src" is part of the source path
// (always including file name) relative to the original path. "baseDir" is
// where local images are resolved, empty disables them. "dst" is the
// destination directory.
func processMarkup(ctx context.Context, data []byte, src, baseDir, dst string, opts renderOptions, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	id := uuid.NewString()
	var outputName string

	log.Info("Rendering starting", zap.String("from", src), zap.String("id", id))
	defer func(start time.Time) {
		// image decoders and rasterizer are fed with arbitrary input, single
		// bad source must not stop the run
		if r := recover(); r != nil {
			log.Error("Rendering ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("rendering panic: %v", r)
		} else if rerr == nil {
			log.Info("Rendering completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.String("id", id))
		}
	}(time.Now())

	text, err := decodeMarkup(data)
	if err != nil {
		return err
	}
	root := markup.Parse(text, log)

	if env.Rpt != nil {
		env.Rpt.StoreData(fmt.Sprintf("input-%s%s", id, filepath.Ext(src)), data)
		env.Rpt.StoreData(fmt.Sprintf("tree-%s.txt", id), []byte(root.Dump()))
	}

	outputName = buildOutputPath(buildValues(root, src, id, opts), src, dst, opts.format, env)

	// Check if output file already exists
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	resp, err := response.CreateImage(ctx, env.Engine, root, response.Options{
		Width:   opts.width,
		Height:  opts.height,
		Format:  opts.format,
		Emoji:   opts.emoji,
		Debug:   opts.debug,
		BaseDir: baseDir,
		Log:     log,
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputName, resp.Body, 0644); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}

	// Store rendering result for debugging
	if env.Rpt != nil {
		env.Rpt.Store(fmt.Sprintf("result-%s%s", id, filepath.Ext(outputName)), outputName)
	}
	return nil
}
