package bundle

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/h2non/filetype"
	"github.com/maruel/natural"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"stylo/archive"
)

// Source is a stylesheet found under one of the requested paths.
type Source struct {
	// Name is path relative to the requested directory or archive path,
	// base file name for a single file. Always uses forward slashes.
	Name string
	// Origin is where the stylesheet came from for logging.
	Origin string
	Data   []byte
}

// Discover finds stylesheets under src which may be a file, a directory
// (walked recursively, symbolic links are not followed), an archive or a
// path inside an archive: "design.zip/components/button". Only files with
// one of the extensions are considered, result is in natural order of
// names.
func Discover(ctx context.Context, src string, exts []string, log *zap.Logger) ([]Source, error) {
	if log == nil {
		log = zap.NewNop()
	}
	d := &discovery{ctx: ctx, exts: exts, log: log}

	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				return nil, fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := d.dir(head); err != nil {
				return nil, fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}
		if !fi.Mode().IsRegular() {
			return nil, fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		arc, err := isArchive(head)
		if err != nil {
			return nil, fmt.Errorf("unable to check archive type: %w", err)
		}
		if arc {
			tail = filepath.ToSlash(strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator)))
			if err := d.archive(head, tail, ""); err != nil {
				return nil, fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}
		if len(tail) != 0 {
			return nil, fmt.Errorf("input was not recognized as archive (%s)", head)
		}
		data, err := os.ReadFile(head)
		if err != nil {
			return nil, err
		}
		if err := d.add(filepath.Base(head), head, data); err != nil {
			return nil, err
		}
		break
	}
	if len(head) == 0 {
		return nil, fmt.Errorf("input source was not found (%s)", src)
	}

	slices.SortFunc(d.found, func(a, b Source) int {
		switch {
		case a.Name == b.Name:
			return 0
		case natural.Less(a.Name, b.Name):
			return -1
		}
		return 1
	})
	return d.found, nil
}

type discovery struct {
	ctx   context.Context
	exts  []string
	log   *zap.Logger
	found []Source
}

// Intercepts reports whether file name has one of stylesheet extensions.
func Intercepts(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return slices.ContainsFunc(exts, func(e string) bool { return strings.EqualFold(e, ext) })
}

func (d *discovery) add(name, origin string, data []byte) error {
	if !Intercepts(name, d.exts) {
		d.log.Debug("Skipping file, not a stylesheet", zap.String("file", origin))
		return nil
	}
	text, err := decode(data)
	if err != nil {
		return fmt.Errorf("unable to decode stylesheet (%s): %w", origin, err)
	}
	d.found = append(d.found, Source{Name: name, Origin: origin, Data: text})
	return nil
}

func (d *discovery) dir(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := d.ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			d.log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		arc, err := isArchive(path)
		if err != nil {
			d.log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if arc {
			if err := d.archive(path, "", filepath.ToSlash(filepath.Dir(rel))); err != nil {
				d.log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			d.log.Error("Unable to read file", zap.String("file", path), zap.Error(err))
			return nil
		}
		return d.add(filepath.ToSlash(rel), path, data)
	})
}

// archive adds stylesheets under pathIn inside archive, names are relative
// to pathIn and rooted under prefix.
func (d *discovery) archive(file, pathIn, prefix string) error {
	return archive.Walk(file, pathIn, func(arc string, f *zip.File) error {
		if err := d.ctx.Err(); err != nil {
			return err
		}
		if !Intercepts(f.Name, d.exts) {
			return nil
		}
		r, err := f.Open()
		if err != nil {
			return fmt.Errorf("unable to open %s in %s: %w", f.Name, arc, err)
		}
		defer r.Close()
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("unable to read %s in %s: %w", f.Name, arc, err)
		}
		name := strings.TrimPrefix(strings.TrimPrefix(f.Name, pathIn), "/")
		if len(name) == 0 {
			name = path.Base(f.Name)
		}
		if prefix != "" && prefix != "." {
			name = path.Join(prefix, name)
		}
		return d.add(name, arc+":"+f.Name, data)
	})
}

func isArchive(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	return filetype.Is(head[:n], "zip"), nil
}

var charsetRule = regexp.MustCompile(`^@charset\s+"([^"]+)"\s*;`)

// decode converts stylesheet to UTF-8 honoring byte order mark and
// @charset rule.
func decode(data []byte) ([]byte, error) {
	contentType := "text/css"
	if m := charsetRule.FindSubmatch(data); m != nil {
		contentType += "; charset=" + string(m[1])
	}
	enc, name, certain := charset.DetermineEncoding(data, contentType)
	if name == "utf-8" || (!certain && isASCII(data)) {
		return bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), nil
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("unable to convert from %s: %w", name, err)
	}
	return out, nil
}

func isASCII(data []byte) bool {
	for _, c := range data {
		if c >= 0x80 {
			return false
		}
	}
	return true
}
