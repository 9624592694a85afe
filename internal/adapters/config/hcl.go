package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

type hclFile struct {
	Version     string     `hcl:"version,optional"`
	Root        string     `hcl:"root,optional"`
	Concurrency int        `hcl:"concurrency,optional"`
	Output      string     `hcl:"output,optional"`
	CRS         string     `hcl:"crs,optional"`
	Stages      []StageDTO `hcl:"stage,block"`
}

// decodeHCL reads an HCL pipeline. Expressions may reference dir, the
// directory holding the file, and env, the process environment.
func decodeHCL(path string) (Pipelinefile, []StageDTO, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return Pipelinefile{}, nil, parseError(path, diags)
	}

	var file hclFile
	if diags := gohcl.DecodeBody(f.Body, evalContext(path), &file); diags.HasErrors() {
		return Pipelinefile{}, nil, parseError(path, diags)
	}

	header := Pipelinefile{
		Version:     file.Version,
		Root:        file.Root,
		Concurrency: file.Concurrency,
		Output:      file.Output,
		CRS:         file.CRS,
	}
	return header, file.Stages, nil
}

func evalContext(path string) *hcl.EvalContext {
	dir := filepath.Dir(path)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	env := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = cty.StringVal(v)
		}
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"dir": cty.StringVal(dir),
			"env": cty.ObjectVal(env),
		},
	}
}
