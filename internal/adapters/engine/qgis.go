// Package engine provides the processing engines the stages run algorithms on.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/drainage/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultBinary is the QGIS processing command-line tool.
const DefaultBinary = "qgis_process"

const (
	stderrTailLines = 5
	// waitDelay bounds how long output pipes held by orphaned children may
	// delay returning after the process exits or is killed.
	waitDelay = 5 * time.Second
)

var _ ports.ProcessingEngine = (*QGIS)(nil)

// OutputVerifier reports which of the given paths do not exist.
type OutputVerifier interface {
	MissingOutputs(paths []string) ([]string, error)
}

// QGIS runs algorithms through qgis_process.
type QGIS struct {
	binary   string
	verifier OutputVerifier
	env      map[string]string
}

// NewQGIS creates an engine invoking binary, DefaultBinary when empty.
func NewQGIS(binary string, verifier OutputVerifier) *QGIS {
	if binary == "" {
		binary = DefaultBinary
	}
	return &QGIS{
		binary:   binary,
		verifier: verifier,
		// Algorithms run headless.
		env: map[string]string{"QT_QPA_PLATFORM": "offscreen"},
	}
}

type runResponse struct {
	Results map[string]any `json:"results"`
}

// Run executes `qgis_process --json run <algorithm> -- KEY=VALUE...`.
// Process diagnostics are written to the span carried by ctx.
func (q *QGIS) Run(
	ctx context.Context, algorithm string, params map[string]any, progress ports.ProgressFunc,
) (domain.ProcessingResult, error) {
	cmdEnv := resolveEnvironment(os.Environ(), q.env)

	executable := q.binary
	if !filepath.IsAbs(executable) {
		lp, err := lookPath(executable, cmdEnv)
		if err != nil {
			return domain.ProcessingResult{}, zerr.With(
				zerr.Wrap(err, "cannot find "+q.binary), "algorithm", algorithm)
		}
		executable = lp
	}

	args := append([]string{"--json", "run", algorithm, "--"}, encodeParams(params)...)
	cmd := exec.CommandContext(ctx, executable, args...) //nolint:gosec // algorithm ids come from stage code
	cmd.Args[0] = q.binary
	cmd.Env = cmdEnv
	cmd.WaitDelay = waitDelay

	var sink io.Writer
	if span := ports.SpanFromContext(ctx); span != nil {
		sink = span
	}
	progressOut := newProgressWriter(progress)
	stderr := newTailWriter(sink, stderrTailLines)

	var stdout bytes.Buffer
	cmd.Stdout = io.MultiWriter(&stdout, progressOut)
	cmd.Stderr = io.MultiWriter(stderr, progressOut)

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.ProcessingResult{}, ctxErr
		}
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		msg := stderr.Tail()
		if msg == "" {
			msg = err.Error()
		}
		return domain.ProcessingResult{}, zerr.With(zerr.With(
			zerr.Wrap(domain.ErrAlgorithmFailed, msg), "algorithm", algorithm), "exit_code", exitCode)
	}

	var resp runResponse
	if err := json.Unmarshal(jsonPayload(stdout.Bytes()), &resp); err != nil {
		return domain.ProcessingResult{}, zerr.With(
			zerr.Wrap(domain.ErrAlgorithmFailed, "cannot decode results: "+err.Error()), "algorithm", algorithm)
	}

	result := domain.ProcessingResult{Outputs: resp.Results}
	if err := q.verify(algorithm, params, result); err != nil {
		return domain.ProcessingResult{}, err
	}
	if progress != nil {
		progress(100)
	}
	return result, nil
}

// verify checks that every output path the algorithm was asked to write and
// reported back exists.
func (q *QGIS) verify(algorithm string, params map[string]any, result domain.ProcessingResult) error {
	if q.verifier == nil {
		return nil
	}
	var paths []string
	for key, requested := range params {
		path, ok := result.OutputPath(key)
		if ok && path == requested && filepath.IsAbs(path) {
			paths = append(paths, path)
		}
	}
	slices.Sort(paths)

	missing, err := q.verifier.MissingOutputs(paths)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "verify outputs"), "algorithm", algorithm)
	}
	if len(missing) > 0 {
		return zerr.With(zerr.With(zerr.Wrap(domain.ErrAlgorithmFailed, "reported outputs do not exist"),
			"algorithm", algorithm), "missing", missing)
	}
	return nil
}

// jsonPayload drops anything printed before the JSON document.
func jsonPayload(out []byte) []byte {
	if i := bytes.IndexByte(out, '{'); i > 0 {
		return out[i:]
	}
	return out
}

// encodeParams renders params as sorted KEY=VALUE arguments. Lists repeat
// the key once per element.
func encodeParams(params map[string]any) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	args := make([]string, 0, len(keys))
	for _, k := range keys {
		for _, v := range encodeValue(params[k]) {
			args = append(args, k+"="+v)
		}
	}
	return args
}

func encodeValue(v any) []string {
	switch v := v.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case bool:
		return []string{strconv.FormatBool(v)}
	case int:
		return []string{strconv.Itoa(v)}
	case float64:
		return []string{strconv.FormatFloat(v, 'f', -1, 64)}
	case []string:
		return v
	case []int:
		out := make([]string, len(v))
		for i, n := range v {
			out[i] = strconv.Itoa(n)
		}
		return out
	case []any:
		var out []string
		for _, e := range v {
			out = append(out, encodeValue(e)...)
		}
		return out
	default:
		return []string{fmt.Sprint(v)}
	}
}

// resolveEnvironment overlays extra on the system environment. Variables
// already set by the user win.
func resolveEnvironment(sysEnv []string, extra map[string]string) []string {
	result := slices.Clone(sysEnv)
	set := make(map[string]bool, len(sysEnv))
	for _, entry := range sysEnv {
		if k, _, ok := strings.Cut(entry, "="); ok {
			set[k] = true
		}
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if !set[k] {
			result = append(result, k+"="+extra[k])
		}
	}
	return result
}

// lookPath searches for an executable in the directories named by the PATH
// entry of env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
		}
	}
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
