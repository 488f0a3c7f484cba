package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	yaml "gopkg.in/yaml.v3"
)

func newReport(t *testing.T) *Report {
	t.Helper()
	conf := ReporterConfig{Destination: filepath.Join(t.TempDir(), "report.zip")}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	return r
}

func readArchive(t *testing.T, name string) map[string]string {
	t.Helper()
	arc, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer arc.Close()

	out := make(map[string]string)
	for _, f := range arc.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("unable to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("unable to read %s: %v", f.Name, err)
		}
		out[f.Name] = string(data)
	}
	return out
}

func TestReport_Archive(t *testing.T) {
	r := newReport(t)

	log := filepath.Join(t.TempDir(), "final.log")
	if err := os.WriteFile(log, []byte("started\n"), 0644); err != nil {
		t.Fatal(err)
	}
	r.Store("final.log", log)
	r.Store("missing.log", filepath.Join(t.TempDir(), "missing.log"))
	r.StoreSource("button.css", "kit.zip/button.css", []byte(".button { color: red; foo: 1 }"))
	r.StorePayload("button.css", "kit.zip/button.css", PayloadFormatJson, []byte(`{"r":[]}`), []string{`unknown property "foo"`})
	r.StoreData("trees/button.css.txt", []byte("Payload"))

	// log is read when report is closed
	if err := os.WriteFile(log, []byte("started\nended\n"), 0644); err != nil {
		t.Fatal(err)
	}

	name := r.Name()
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files := readArchive(t, name)
	for file, want := range map[string]string{
		"final.log":                "started\nended\n",
		"sources/button.css":       ".button { color: red; foo: 1 }",
		"payloads/button.css.json": `{"r":[]}`,
		"trees/button.css.txt":     "Payload",
	} {
		if got := files[file]; got != want {
			t.Errorf("%s = %q, want %q", file, got, want)
		}
	}
	var warnings map[string][]string
	if err := yaml.Unmarshal([]byte(files["warnings.yaml"]), &warnings); err != nil {
		t.Fatalf("unable to read warnings: %v", err)
	}
	if want := map[string][]string{"kit.zip/button.css": {`unknown property "foo"`}}; !reflect.DeepEqual(warnings, want) {
		t.Errorf("warnings = %v, want %v", warnings, want)
	}
	if _, ok := files["missing.log"]; ok {
		t.Error("missing file must not be archived")
	}

	var manifest []map[string]any
	if err := yaml.Unmarshal([]byte(files["MANIFEST.yaml"]), &manifest); err != nil {
		t.Fatalf("unable to read manifest: %v", err)
	}
	var names []string
	for _, row := range manifest {
		names = append(names, row["name"].(string))
	}
	want := []string{"final.log", "missing.log", "payloads/button.css.json", "sources/button.css", "trees/button.css.txt"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("manifest names = %v, want %v", names, want)
	}
	if row := manifest[2]; row["kind"] != "payload" || row["format"] != "json" || row["origin"] != "kit.zip/button.css" {
		t.Errorf("payload row = %v", row)
	}
	if row := manifest[0]; row["kind"] != "file" || row["size"] != 14 {
		t.Errorf("log row = %v", row)
	}
}

func TestReport_RepeatedNames(t *testing.T) {
	r := newReport(t)
	r.StoreSource("theme.css", "a/theme.css", []byte("a"))
	r.StoreSource("theme.css", "b/theme.css", []byte("b"))
	r.StoreSource("theme.css", "c/theme.css", []byte("c"))

	name := r.Name()
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	files := readArchive(t, name)
	for file, want := range map[string]string{
		"sources/theme.css":   "a",
		"sources/theme~2.css": "b",
		"sources/theme~3.css": "c",
	} {
		if got := files[file]; got != want {
			t.Errorf("%s = %q, want %q", file, got, want)
		}
	}
	if _, ok := files["warnings.yaml"]; ok {
		t.Error("warnings must be omitted when there are none")
	}
}

func TestReport_Nil(t *testing.T) {
	var r *Report
	r.Store("a", "b")
	r.StoreData("a", nil)
	r.StoreSource("a.css", "a.css", nil)
	r.StorePayload("a.css", "a.css", PayloadFormatIon, nil, []string{"w"})
	if r.Name() != "" {
		t.Errorf("Name() = %q, want empty", r.Name())
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() on nil report error = %v", err)
	}
}

func TestReport_NilFile(t *testing.T) {
	r := &Report{items: make(map[string]*item)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}
