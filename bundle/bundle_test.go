package bundle

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"

	"stylo/compiler"
	"stylo/config"
	"stylo/ir"
	"stylo/registry"
)

var cssExts = []string{".css"}

func writeFile(t *testing.T, name, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(name, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func writeZip(t *testing.T, name string, files map[string]string) {
	t.Helper()
	f, err := os.Create(name)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := zip.NewWriter(f)
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fw, err := w.Create(k)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(files[k])); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func names(sources []Source) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = s.Name
	}
	return out
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "styles", "button.css"), ".button {}")
	writeFile(t, filepath.Join(root, "styles", "card10.css"), ".card {}")
	writeFile(t, filepath.Join(root, "styles", "card2.css"), ".card {}")
	writeFile(t, filepath.Join(root, "styles", "readme.md"), "# styles")
	writeFile(t, filepath.Join(root, "styles", "nested", "theme.CSS"), ":root {}")
	writeZip(t, filepath.Join(root, "styles", "kit.zip"), map[string]string{
		"components/badge.css": ".badge {}",
		"components/notes.txt": "",
	})
	writeZip(t, filepath.Join(root, "design.zip"), map[string]string{
		"components/chip.css":     ".chip {}",
		"components/forms/in.css": ".input {}",
		"theme.css":               ":root {}",
	})

	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"single file", filepath.Join(root, "styles", "button.css"), []string{"button.css"}},
		{"not a stylesheet", filepath.Join(root, "styles", "readme.md"), []string{}},
		{"directory", filepath.Join(root, "styles"),
			[]string{"button.css", "card2.css", "card10.css", "components/badge.css", "nested/theme.CSS"}},
		{"archive", filepath.Join(root, "design.zip"),
			[]string{"components/chip.css", "components/forms/in.css", "theme.css"}},
		{"path inside archive", filepath.Join(root, "design.zip", "components"),
			[]string{"chip.css", "forms/in.css"}},
		{"file inside archive", filepath.Join(root, "design.zip", "theme.css"), []string{"theme.css"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := Discover(context.Background(), tt.src, cssExts, zaptest.NewLogger(t))
			if err != nil {
				t.Fatalf("Discover() error = %v", err)
			}
			if got := names(found); !slices.Equal(got, tt.want) {
				t.Errorf("Discover() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiscover_Errors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "button.css"), ".button {}")

	for _, src := range []string{
		filepath.Join(root, "missing.css"),
		filepath.Join(root, "button.css", "inner.css"),
	} {
		if _, err := Discover(context.Background(), src, cssExts, zaptest.NewLogger(t)); err == nil {
			t.Errorf("Discover(%s) expected error", src)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Discover(ctx, root, cssExts, zaptest.NewLogger(t)); err == nil {
		t.Error("Discover() with canceled context expected error")
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"ascii", []byte(".a { color: red }"), ".a { color: red }"},
		{"utf-8", []byte(`.a::after { content: "ü" }`), `.a::after { content: "ü" }`},
		{"utf-8 bom", []byte("\xef\xbb\xbf.a {}"), ".a {}"},
		{"charset rule", []byte("@charset \"iso-8859-1\"; .a { font-family: \"Caf\xe9\" }"),
			"@charset \"iso-8859-1\"; .a { font-family: \"Café\" }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decode(tt.in)
			if err != nil {
				t.Fatalf("decode() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("decode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIntercepts(t *testing.T) {
	exts := []string{".css", ".pcss"}
	for name, want := range map[string]bool{
		"button.css":   true,
		"BUTTON.CSS":   true,
		"theme.pcss":   true,
		"button.scss":  false,
		"button.css.m": false,
		"css":          false,
	} {
		if got := Intercepts(name, exts); got != want {
			t.Errorf("Intercepts(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestIdentifier(t *testing.T) {
	tests := map[string]string{
		"button.css":                    "ButtonStyle",
		"components/primary-button.css": "PrimaryButtonStyle",
		"components/Primary Button.css": "PrimaryButtonStyle",
		"2.css":                         "S2Style",
		"Über Card.css":                 "UberCardStyle",
	}
	for in, want := range tests {
		if got := Identifier(in); got != want {
			t.Errorf("Identifier(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		tmpl, name, want string
		wantErr          bool
	}{
		{"{{ .Name | slug }}_style.go", "components/Primary Button.css", "primary-button_style.go", false},
		{"{{ .Dir | replace \"/\" \"_\" }}_{{ .Name }}", "components/forms/input.css", "components_forms_input.go", false},
		{"{{ .Package }}_{{ .Name }}.{{ .Format }}.go", "theme.css", "styles_theme.json.go", false},
		{"{{ .Name", "theme.css", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.tmpl, func(t *testing.T) {
			got, err := outputName(tt.tmpl, tt.name, config.PayloadFormatJson, "styles")
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("outputName() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("outputName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCache(t *testing.T) {
	for _, path := range []string{":memory:", filepath.Join(t.TempDir(), "cache.db")} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			c, err := OpenCache(zaptest.NewLogger(t), path)
			if err != nil {
				t.Fatalf("OpenCache() error = %v", err)
			}
			defer c.Close()

			key := Key([]byte("json"), []byte(".a {}"))
			if e, err := c.Get(key, "json"); err != nil || e != nil {
				t.Fatalf("Get() on empty cache = %v, %v", e, err)
			}
			want := &Entry{Data: []byte(`{"s":[]}`), Warnings: []string{"unknown property \"foo\"", "x"}}
			if err := c.Put(key, "json", want); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			got, err := c.Get(key, "json")
			if err != nil || got == nil {
				t.Fatalf("Get() = %v, %v", got, err)
			}
			if string(got.Data) != string(want.Data) || !slices.Equal(got.Warnings, want.Warnings) {
				t.Errorf("Get() = %+v, want %+v", got, want)
			}
			if e, _ := c.Get(key, "ion"); e != nil {
				t.Error("entry of another format must not be returned")
			}

			// replace
			if err := c.Put(key, "json", &Entry{Data: []byte("{}")}); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			if got, _ := c.Get(key, "json"); got == nil || string(got.Data) != "{}" || got.Warnings != nil {
				t.Errorf("replaced entry = %+v", got)
			}
			if n, err := c.Len(); err != nil || n != 1 {
				t.Errorf("Len() = %d, %v", n, err)
			}
		})
	}
}

func TestKey(t *testing.T) {
	if Key([]byte("ab"), []byte("c")) == Key([]byte("a"), []byte("bc")) {
		t.Error("parts must not be ambiguous")
	}
	if Key([]byte("a")) != Key([]byte("a")) {
		t.Error("key must be stable")
	}
}

func newBundler(t *testing.T, cache *Cache, format config.PayloadFormat) *Bundler {
	t.Helper()
	log := zaptest.NewLogger(t)
	return New(log, compiler.New(log, compiler.Options{}), cache, Options{
		Package:      "styles",
		Format:       format,
		Extensions:   cssExts,
		NameTemplate: "{{ .Name | slug }}_style.go",
		Fingerprint:  []byte("test"),
	})
}

func TestCompile_Cache(t *testing.T) {
	cache, err := OpenCache(zaptest.NewLogger(t), ":memory:")
	if err != nil {
		t.Fatalf("OpenCache() error = %v", err)
	}
	defer cache.Close()
	b := newBundler(t, cache, config.PayloadFormatJson)

	src := Source{Name: "a.css", Origin: "a.css", Data: []byte(".a { foo: 1; width: red; height: 10px }")}
	first, err := b.Compile(src)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if first.Cached {
		t.Error("first compilation must not come from cache")
	}
	want := []string{`property "width" rejected value "red"`, `unknown property "foo"`}
	if !slices.Equal(first.Warnings, want) {
		t.Errorf("Warnings = %v, want %v", first.Warnings, want)
	}

	second, err := b.Compile(src)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if !second.Cached || string(second.Data) != string(first.Data) || !slices.Equal(second.Warnings, want) {
		t.Errorf("second compilation = %+v", second)
	}

	// syntax errors are fatal and never cached
	if _, err := b.Compile(Source{Name: "bad.css", Data: []byte(".a { color: red")}); err == nil {
		t.Error("expected error for malformed stylesheet")
	}
}

func TestCompile_Report(t *testing.T) {
	rpt, err := (&config.ReporterConfig{Destination: filepath.Join(t.TempDir(), "report.zip")}).Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	b := newBundler(t, nil, config.PayloadFormatJson)
	b.opts.Report = rpt

	good := Source{Name: "good.css", Origin: "kit.zip/good.css", Data: []byte(".a { color: red }")}
	c, err := b.Compile(good)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if _, err := b.Compile(Source{Name: "bad.css", Origin: "bad.css", Data: []byte(".a {")}); err == nil {
		t.Fatal("expected syntax error")
	}

	name := rpt.Name()
	if err := rpt.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	arc, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer arc.Close()

	var files []string
	for _, f := range arc.File {
		files = append(files, f.Name)
	}
	want := []string{"MANIFEST.yaml", "payloads/good.css.json", "sources/bad.css", "sources/good.css"}
	if !slices.Equal(files, want) {
		t.Errorf("report files = %v, want %v", files, want)
	}
	if len(c.Data) == 0 {
		t.Error("payload is empty")
	}
}

func TestTransform(t *testing.T) {
	for _, format := range []config.PayloadFormat{config.PayloadFormatJson, config.PayloadFormatIon} {
		t.Run(format.String(), func(t *testing.T) {
			b := newBundler(t, nil, format)
			g, c, err := b.Transform(Source{Name: "components/primary-button.css", Origin: "x", Data: []byte(".button { padding: 4px }")})
			if err != nil {
				t.Fatalf("Transform() error = %v", err)
			}
			if g.File != "primary-button_style.go" || g.Ident != "PrimaryButtonStyle" {
				t.Errorf("Transform() = %s %s", g.File, g.Ident)
			}
			code := string(g.Code)
			for _, want := range []string{
				"package styles\n",
				`import "stylo/registry"`,
				"var PrimaryButtonStyle = registry.Sheet{",
				`Format: "` + format.String() + `"`,
				"registry.Default().RegisterSheet(PrimaryButtonStyle)",
			} {
				if !strings.Contains(code, want) {
					t.Errorf("generated code lacks %q:\n%s", want, code)
				}
			}

			// payload is embedded verbatim and registers
			r := registry.New(zaptest.NewLogger(t), registry.DefaultOptions())
			if err := r.RegisterSheet(registry.Sheet{Format: format.String(), Data: c.Data}); err != nil {
				t.Fatalf("RegisterSheet() error = %v", err)
			}
			if r.Rules("button").Peek() == nil {
				t.Error("button rule set missing")
			}
		})
	}
}

func TestWrite(t *testing.T) {
	b := newBundler(t, nil, config.PayloadFormatJson)
	dir := filepath.Join(t.TempDir(), "styles")

	sources := []Source{
		{Name: "button.css", Origin: "button.css", Data: []byte(".button { padding: 4px }")},
		{Name: "forms/button.css", Origin: "forms/button.css", Data: []byte(".field { padding: 4px }")},
		{Name: "broken.css", Origin: "broken.css", Data: []byte(".a {")},
		{Name: "card.css", Origin: "card.css", Data: []byte(".card { margin: 2px }")},
	}
	written, err := b.Write(context.Background(), sources, dir, false)
	if errs := multierr.Errors(err); len(errs) != 2 {
		t.Fatalf("Write() errors = %v, want collision and syntax error", errs)
	}
	want := []string{filepath.Join(dir, "button_style.go"), filepath.Join(dir, "card_style.go")}
	if !slices.Equal(written, want) {
		t.Errorf("written = %v, want %v", written, want)
	}

	// existing files are kept unless overwrite is requested
	_, err = b.Write(context.Background(), sources[:1], dir, false)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("Write() without overwrite = %v", err)
	}
	if _, err = b.Write(context.Background(), sources[:1], dir, true); err != nil {
		t.Errorf("Write() with overwrite = %v", err)
	}
}

func TestEncode(t *testing.T) {
	p := &ir.Payload{Flags: map[string]string{"darkMode": "media"}}
	for _, f := range []config.PayloadFormat{config.PayloadFormatJson, config.PayloadFormatIon} {
		data, err := Encode(p, f)
		if err != nil {
			t.Fatalf("Encode(%s) error = %v", f, err)
		}
		r := registry.New(zaptest.NewLogger(t), registry.DefaultOptions())
		if err := r.RegisterSheet(registry.Sheet{Format: f.String(), Data: data}); err != nil {
			t.Fatalf("RegisterSheet(%s) error = %v", f, err)
		}
		if r.Flag("darkMode") != "media" {
			t.Errorf("flag lost in %s", f)
		}
	}
	if _, err := Encode(p, config.PayloadFormat(5)); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestPrettify(t *testing.T) {
	data, err := Encode(&ir.Payload{Flags: map[string]string{"a": "b"}}, config.PayloadFormatJson)
	if err != nil {
		t.Fatal(err)
	}
	pretty, err := Prettify(data)
	if err != nil {
		t.Fatalf("Prettify() error = %v", err)
	}
	if !strings.Contains(string(pretty), "\n  ") {
		t.Errorf("Prettify() = %s", pretty)
	}
	if _, err := Prettify([]byte("{")); err == nil {
		t.Error("expected error")
	}
}
