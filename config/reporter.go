package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"github.com/maruel/natural"
	yaml "gopkg.in/yaml.v3"

	"stylo/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates initialized empty reporter.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	f, err := os.Create(conf.Destination)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err != nil {
			return nil, fmt.Errorf("unable to create report: %w", err)
		}
	}
	return &Report{
		items:    make(map[string]*item),
		warnings: make(map[string][]string),
		file:     f,
	}, nil
}

// Kinds of report items, as listed in the manifest.
const (
	kindFile    = "file"
	kindData    = "data"
	kindSource  = "source"
	kindPayload = "payload"
)

// item is a single file of the report archive. Files are read when report
// is closed, everything else is kept in memory.
type item struct {
	kind   string
	origin string
	format string
	size   int
	stamp  time.Time

	path string
	data []byte
}

// Report accumulates stylesheets, payloads, logs and compilation warnings
// for the debug report archive. Report is not safe for concurrent use, nil
// report ignores everything.
type Report struct {
	items map[string]*item
	// warnings per stylesheet origin
	warnings map[string][]string
	file     *os.File
}

// Close writes the archive.
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	defer r.file.Close()
	return r.finalize()
}

// Name returns name of underlying file.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// add registers item under name, repeated names get numeric suffix before
// extension.
func (r *Report) add(name string, it *item) {
	it.stamp = time.Now()
	unique := name
	for i := 2; r.items[unique] != nil; i++ {
		ext := path.Ext(name)
		unique = fmt.Sprintf("%s~%d%s", name[:len(name)-len(ext)], i, ext)
	}
	r.items[unique] = it
}

// Store puts file into the report. File is read on Close, so it
// may still be written to until then. Directories and missing files are
// listed in the manifest only.
func (r *Report) Store(name, file string) {
	if r == nil {
		return
	}
	it := &item{kind: kindFile, origin: file, path: file}
	if p, err := filepath.Abs(file); err == nil {
		it.path = p
	}
	r.add(name, it)
}

// StoreData puts data into the report as a file under requested name.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	r.add(name, &item{kind: kindData, size: len(data), data: data})
}

// StoreSource puts decoded stylesheet into the report under "sources/".
func (r *Report) StoreSource(name, origin string, data []byte) {
	if r == nil {
		return
	}
	r.add(path.Join("sources", name), &item{kind: kindSource, origin: origin, size: len(data), data: data})
}

// StorePayload puts compiled payload of stylesheet into the report under
// "payloads/" together with warnings compilation produced.
func (r *Report) StorePayload(name, origin string, format PayloadFormat, data []byte, warnings []string) {
	if r == nil {
		return
	}
	r.add(path.Join("payloads", name+format.Ext()), &item{kind: kindPayload, origin: origin, format: format.String(), size: len(data), data: data})
	if len(warnings) > 0 {
		r.warnings[origin] = append(r.warnings[origin], warnings...)
	}
}

// finalize writes manifest, warnings and every stored item.
func (r *Report) finalize() error {
	arc := zip.NewWriter(r.file)
	defer arc.Close()

	now := time.Now()
	names := slices.Collect(maps.Keys(r.items))
	sort.Sort(natural.StringSlice(names))

	manifest, err := r.manifest(names)
	if err != nil {
		return err
	}
	if err := saveFile(arc, "MANIFEST.yaml", now, bytes.NewReader(manifest)); err != nil {
		return err
	}
	if len(r.warnings) > 0 {
		data, err := yaml.Marshal(r.warnings)
		if err != nil {
			return fmt.Errorf("unable to prepare warnings: %w", err)
		}
		if err := saveFile(arc, "warnings.yaml", now, bytes.NewReader(data)); err != nil {
			return err
		}
	}

	for _, name := range names {
		it := r.items[name]
		if it.kind != kindFile {
			if err := saveFile(arc, name, it.stamp, bytes.NewReader(it.data)); err != nil {
				return err
			}
			continue
		}
		info, err := os.Stat(it.path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		f, err := os.Open(it.path)
		if err != nil {
			return err
		}
		err = saveFile(arc, name, info.ModTime(), f)
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// manifest lists items in archive order. File sizes are known only now.
func (r *Report) manifest(names []string) ([]byte, error) {
	type row struct {
		Name   string    `yaml:"name"`
		Kind   string    `yaml:"kind"`
		Origin string    `yaml:"origin,omitempty"`
		Format string    `yaml:"format,omitempty"`
		Size   int       `yaml:"size,omitempty"`
		Stamp  time.Time `yaml:"stamp"`
	}
	rows := make([]row, 0, len(names))
	for _, name := range names {
		it := r.items[name]
		if it.kind == kindFile {
			if info, err := os.Stat(it.path); err == nil && info.Mode().IsRegular() {
				it.size = int(info.Size())
			}
		}
		rows = append(rows, row{Name: name, Kind: it.kind, Origin: it.origin, Format: it.format, Size: it.size, Stamp: it.stamp})
	}
	data, err := yaml.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("unable to prepare manifest: %w", err)
	}
	return data, nil
}

func saveFile(dst *zip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := dst.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: t})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
