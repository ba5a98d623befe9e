package composer

import (
	"bytes"
	"fmt"
	"go/format"
	"sort"
	"text/template"
	"time"
)

// scaffoldData feeds scaffoldTemplate.
type scaffoldData struct {
	Name        string
	Description string
	Generated   string
	Components  []LoadedComponent
	Steps       []string
	Imports     []string
	Blocks      []Block
}

var scaffoldTemplate = template.Must(template.New("scaffold").Parse(`// Code generated by skillflow. DO NOT EDIT.

// Command {{.Name}} is a composed flow.
//
// {{.Description}}
//
{{- if .Components}}
// Components, in dependency order:
{{- range .Components}}
//   - {{.Name}} ({{.Path}})
{{- end}}
{{- else}}
// Composed from templates; no registry components.
{{- end}}
//
// Generated {{.Generated}}.
package main

import (
{{- range .Imports}}
	{{printf "%q" .}}
{{- end}}
)

// Component is a constituent registry entry. Loading only records the path;
// the component itself is not imported or executed.
type Component struct {
	Name   string ` + "`json:\"name\"`" + `
	Path   string ` + "`json:\"path\"`" + `
	Loaded bool   ` + "`json:\"loaded\"`" + `
}

// StepResult is the outcome of one step.
type StepResult struct {
	Step   string ` + "`json:\"step\"`" + `
	Status string ` + "`json:\"status\"`" + `
}

// Flow sequences the steps over the loaded components.
type Flow struct {
	Components map[string]Component
	Order      []string
	Steps      []string
}

// NewFlow loads every component and the step list.
func NewFlow() *Flow {
	f := &Flow{
		Components: make(map[string]Component),
		Steps: []string{
{{- range .Steps}}
			{{printf "%q" .}},
{{- end}}
		},
	}
{{- range .Components}}
	f.load({{printf "%q" .Name}}, {{printf "%q" .Path}}, {{.Loaded}})
{{- end}}
	return f
}

func (f *Flow) load(name, path string, loaded bool) {
	f.Components[name] = Component{Name: name, Path: path, Loaded: loaded}
	f.Order = append(f.Order, name)
}

// Execute runs each step in order. Steps are stubs that report completion.
func (f *Flow) Execute() []StepResult {
	results := make([]StepResult, 0, len(f.Steps))
	for _, step := range f.Steps {
		results = append(results, StepResult{Step: step, Status: "completed"})
	}
	return results
}
{{range .Blocks}}
{{.Code}}
{{end}}
func main() {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewFlow().Execute()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
`))

// baseImports are used by the scaffold itself.
var baseImports = []string{"encoding/json", "fmt", "os"}

// renderScaffold executes the template and gofmts the result. When the output
// does not parse, the unformatted text is returned along with the format error.
func renderScaffold(d scaffoldData, generated time.Time) ([]byte, error) {
	d.Generated = generated.UTC().Format(time.RFC3339)
	d.Imports = mergeImports(baseImports, d.Blocks)

	var buf bytes.Buffer
	if err := scaffoldTemplate.Execute(&buf, d); err != nil {
		return nil, fmt.Errorf("render scaffold: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return buf.Bytes(), fmt.Errorf("format scaffold: %w", err)
	}
	return src, nil
}

func mergeImports(base []string, blocks []Block) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(imp string) {
		if !seen[imp] {
			seen[imp] = true
			out = append(out, imp)
		}
	}
	for _, imp := range base {
		add(imp)
	}
	for _, b := range blocks {
		for _, imp := range b.Imports {
			add(imp)
		}
	}
	sort.Strings(out)
	return out
}
