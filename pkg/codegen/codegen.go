// Package codegen renders a register map as Go constants for firmware and
// test code: block bases, register offsets and addresses, and per-field
// shift, mask and reset values.
package codegen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"

	"github.com/regflow/regflow-go/pkg/regmap"
)

// funcMap provides helper functions available to all templates.
var funcMap = template.FuncMap{
	"hex":   func(v uint64) string { return fmt.Sprintf("0x%X", v) },
	"quote": func(s string) string { return fmt.Sprintf("%q", s) },
}

// templates holds all parsed code generation templates.
var templates = template.Must(template.New("").Funcs(funcMap).Parse(
	fileTmpl + blockTmpl + registerTmpl,
))

// renderTemplate executes a named template into the builder.
func renderTemplate(b *strings.Builder, name string, data any) {
	if err := templates.ExecuteTemplate(b, name, data); err != nil {
		panic(fmt.Sprintf("template %s: %v", name, err))
	}
}

// --- Template data types ---

type fileData struct {
	Package string
	Source  string
	Map     string
	Blocks  []blockData
}

type blockData struct {
	Ident       string
	Name        string
	Description string
	Base        uint64
	Size        uint64
	Registers   []registerData
}

type registerData struct {
	Ident       string
	Name        string
	Description string
	Type        string
	Offset      uint64
	Addr        uint64
	Reset       uint64
	Fields      []fieldData
}

type fieldData struct {
	Ident       string
	Name        string
	Description string
	Access      string
	Shift       int
	Width       int
	Mask        uint64
	Reset       uint64
}

// --- Template definitions ---

const fileTmpl = `{{define "file"}}// Code generated by regflow from {{.Source}}. DO NOT EDIT.

// Package {{.Package}} holds the register layout of {{.Map}}.
package {{.Package}}

{{range .Blocks}}{{template "block" .}}{{end}}
{{- end}}`

const blockTmpl = `{{define "block"}}
// {{.Ident}} block {{.Name}}: {{.Description}}.
const (
{{.Ident}}Base uint64 = {{hex .Base}}
{{- if .Size}}
{{.Ident}}Size uint64 = {{hex .Size}}
{{- end}}
)
{{range .Registers}}{{template "register" .}}{{end}}
{{- end}}`

const registerTmpl = `{{define "register"}}
// {{.Ident}} register {{.Name}}: {{.Description}}.
const (
{{.Ident}}Offset uint64 = {{hex .Offset}}
{{.Ident}}Addr uint64 = {{hex .Addr}}
{{.Ident}}Reset {{.Type}} = {{hex .Reset}}
{{- range .Fields}}

// {{.Ident}} field {{.Name}} ({{.Access}}, {{.Width}} bit): {{.Description}}.
{{.Ident}}Shift = {{.Shift}}
{{.Ident}}Mask {{$.Type}} = {{hex .Mask}}
{{.Ident}}Reset {{$.Type}} = {{hex .Reset}}
{{- end}}
)
{{end}}`

// Options configures Generate.
type Options struct {
	Package string // defaults to "regs"
	Source  string // input file named in the generated header
}

// Generate returns formatted Go source for m.
func Generate(m *regmap.Map, opts Options) (string, error) {
	pkg := opts.Package
	if pkg == "" {
		pkg = "regs"
	}
	if !validPackage(pkg) {
		return "", fmt.Errorf("invalid package name %q", pkg)
	}
	src := opts.Source
	if src == "" {
		src = m.Name
	}

	data := fileData{Package: pkg, Source: src, Map: m.Name}
	seen := make(map[string]string)
	// claim reserves every constant emitted for prefix.
	claim := func(prefix, path string, suffixes ...string) error {
		for _, s := range suffixes {
			ident := prefix + s
			if prev, ok := seen[ident]; ok {
				return fmt.Errorf("%s and %s both map to Go identifier %s", prev, path, ident)
			}
			seen[ident] = path
		}
		return nil
	}

	for _, b := range m.Blocks {
		bd := blockData{
			Ident:       GoName(b.Name),
			Name:        b.Name,
			Description: describe(b.Description, regmap.DefaultBlockDescription(b.Name)),
			Base:        b.BaseAddress,
			Size:        b.Size,
		}
		blockConsts := []string{"Base"}
		if b.Size != 0 {
			blockConsts = append(blockConsts, "Size")
		}
		if err := claim(bd.Ident, b.Name, blockConsts...); err != nil {
			return "", err
		}
		for _, r := range b.Registers {
			width := r.Width
			if width == 0 {
				width = regmap.DefaultRegisterWidth
			}
			rd := registerData{
				Ident:       bd.Ident + GoName(r.Name),
				Name:        r.Name,
				Description: describe(r.Description, regmap.DefaultRegisterDescription(r.Name)),
				Type:        valueType(width),
				Offset:      r.Offset,
				Addr:        b.BaseAddress + r.Offset,
				Reset:       r.Reset(),
			}
			path := b.Name + "/" + r.Name
			if err := claim(rd.Ident, path, "Offset", "Addr", "Reset"); err != nil {
				return "", err
			}
			for _, f := range r.Fields {
				fd := fieldData{
					Ident:       rd.Ident + GoName(f.Name),
					Name:        f.Name,
					Description: describe(f.Description, regmap.DefaultFieldDescription(f.Name)),
					Access:      f.Access.String(),
					Shift:       f.LSB,
					Width:       f.Width,
					Mask:        f.Mask(),
					Reset:       (f.Reset << uint(f.LSB)) & f.Mask(),
				}
				if err := claim(fd.Ident, path+"/"+f.Name, "Shift", "Mask", "Reset"); err != nil {
					return "", err
				}
				rd.Fields = append(rd.Fields, fd)
			}
			bd.Registers = append(bd.Registers, rd)
		}
		data.Blocks = append(data.Blocks, bd)
	}

	var b strings.Builder
	renderTemplate(&b, "file", data)

	formatted, err := imports.Process(pkg+".go", []byte(b.String()), nil)
	if err != nil {
		return "", fmt.Errorf("formatting generated code: %w", err)
	}
	return string(formatted), nil
}

// WriteFile generates code for m and writes it to path. Unformattable
// output is written to path.broken for inspection.
func WriteFile(path string, m *regmap.Map, opts Options) error {
	code, err := Generate(m, opts)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}
	return os.WriteFile(path, []byte(code), 0o644)
}

// GoName converts a register-map identifier to an exported Go name:
// "BAUD_DIV" becomes "BaudDiv" and "rx_fifo2" becomes "RxFifo2". Anything
// other than ASCII letters and digits separates words.
func GoName(s string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return !isASCIILetter(r) && !isASCIIDigit(r)
	}) {
		part = strings.ToLower(part)
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	out := b.String()
	if out == "" || isASCIIDigit(rune(out[0])) {
		out = "R" + out
	}
	return out
}

func isASCIILetter(r rune) bool { return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') }
func isASCIIDigit(r rune) bool  { return '0' <= r && r <= '9' }

func describe(desc, fallback string) string {
	if desc == "" {
		desc = fallback
	}
	desc = strings.Join(strings.Fields(desc), " ")
	return strings.TrimSuffix(desc, ".")
}

func valueType(width int) string {
	switch {
	case width <= 8:
		return "uint8"
	case width <= 16:
		return "uint16"
	case width <= 32:
		return "uint32"
	default:
		return "uint64"
	}
}

func validPackage(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if !(('a' <= r && r <= 'z') || r == '_' || (i > 0 && isASCIIDigit(r))) {
			return false
		}
	}
	return true
}
