package bundle

import (
	"bytes"
	"fmt"
	"go/format"
	"path"
	"strings"
	"text/template"
	"unicode"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"stylo/config"
)

// RuntimeImport is import path of the package generated code registers
// stylesheets with.
const RuntimeImport = "stylo/registry"

const registrationTmpl = `// Code generated by {{ .App }} from {{ .Source }}; DO NOT EDIT.

package {{ .Package }}

import "{{ .Runtime }}"

// {{ .Ident }} is compiled {{ .Source | base }} stylesheet.
var {{ .Ident }} = registry.Sheet{
	Source: {{ .Source | quote }},
	Format: {{ .Format | quote }},
	Data:   []byte({{ .Payload | quote }}),
}

func init() {
	if err := registry.Default().RegisterSheet({{ .Ident }}); err != nil {
		panic(err)
	}
}
`

var registration = template.Must(template.New("registration").Funcs(sprig.FuncMap()).Parse(registrationTmpl))

// registrationValues are available to registration template.
type registrationValues struct {
	App     string
	Package string
	Runtime string
	Source  string
	Ident   string
	Format  string
	Payload string
}

func generate(v registrationValues) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := registration.Execute(buf, v); err != nil {
		return nil, fmt.Errorf("unable to generate registration for %s: %w", v.Source, err)
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("unable to format registration for %s: %w", v.Source, err)
	}
	return out, nil
}

// Identifier derives exported Go identifier from stylesheet name:
// "components/primary-button.css" becomes "PrimaryButtonStyle".
func Identifier(name string) string {
	base := strings.TrimSuffix(path.Base(name), path.Ext(name))
	var (
		b     strings.Builder
		title = cases.Title(language.Und)
	)
	for part := range strings.SplitSeq(slug.Make(base), "-") {
		b.WriteString(title.String(part))
	}
	ident := b.String()
	if len(ident) == 0 || !unicode.IsLetter(rune(ident[0])) {
		ident = "S" + ident
	}
	return ident + "Style"
}

// nameValues are available to output name template.
type nameValues struct {
	Context string
	Name    string
	Dir     string
	Format  string
	Package string
}

// outputName expands output name template for stylesheet. Result is a plain
// file name, generated files of a package live in a single directory.
func outputName(tmpl, name string, f config.PayloadFormat, pkg string) (string, error) {
	funcMap := sprig.FuncMap()
	funcMap["slug"] = slug.Make

	t, err := template.New(string(config.OutputNameTemplateFieldName)).Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", config.OutputNameTemplateFieldName, err)
	}
	values := nameValues{
		Context: string(config.OutputNameTemplateFieldName),
		Name:    strings.TrimSuffix(path.Base(name), path.Ext(name)),
		Dir:     path.Dir(name),
		Format:  f.String(),
		Package: pkg,
	}
	buf := new(bytes.Buffer)
	if err := t.Execute(buf, values); err != nil {
		return "", err
	}
	out := config.CleanFileName(buf.String())
	if !strings.HasSuffix(out, ".go") {
		out += ".go"
	}
	return out, nil
}
