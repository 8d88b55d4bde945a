package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ohler55/ojg/jp"
	"gopkg.in/yaml.v3"
)

// fixtureExtensions are tried in order after the name as given.
var fixtureExtensions = []string{".json", ".yaml", ".yml"}

// FileFixtures reads JSON or YAML fixtures below Dir.
//
// A name maps to <Dir>/<name>, trying the name as given and then with each
// of .json, .yaml and .yml appended. The route path "/" maps to "index".
// A scenario beginning with "$" is a JSONPath evaluated on the fixture;
// any other scenario selects a top-level key.
type FileFixtures struct {
	Dir string
}

// NewFileFixtures returns a reader rooted at dir.
func NewFileFixtures(dir string) *FileFixtures {
	return &FileFixtures{Dir: dir}
}

// ReadFixture implements FixtureReader.
func (f *FileFixtures) ReadFixture(ctx context.Context, name, scenario string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel := strings.Trim(filepath.ToSlash(name), "/")
	if rel == "" {
		rel = "index"
	}
	base := filepath.Join(f.Dir, filepath.FromSlash(rel))
	if !filepath.IsLocal(filepath.FromSlash(rel)) {
		return nil, fmt.Errorf("%w: %s", ErrFixtureNotFound, base)
	}

	path, err := f.locate(base)
	if err != nil {
		return nil, err
	}

	data, err := decodeFixture(path)
	if err != nil {
		return nil, err
	}
	if scenario == "" {
		return data, nil
	}
	return selectScenario(data, path, scenario)
}

func (f *FileFixtures) locate(base string) (string, error) {
	candidates := []string{base}
	for _, ext := range fixtureExtensions {
		candidates = append(candidates, base+ext)
	}
	for _, c := range candidates {
		info, err := os.Stat(c)
		if err == nil && !info.IsDir() {
			return c, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat fixture %s: %w", c, err)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrFixtureNotFound, base)
}

func decodeFixture(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}

	var v any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &v)
	case ".json":
		err = json.Unmarshal(raw, &v)
	default:
		if err = json.Unmarshal(raw, &v); err != nil {
			err = yaml.Unmarshal(raw, &v)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", path, err)
	}
	return v, nil
}

func selectScenario(data any, path, scenario string) (any, error) {
	if strings.HasPrefix(scenario, "$") {
		x, err := jp.ParseString(scenario)
		if err != nil {
			return nil, fmt.Errorf("invalid scenario path %q: %w", scenario, err)
		}
		results := x.Get(data)
		switch len(results) {
		case 0:
			return nil, fmt.Errorf("%w: %s (scenario %q)", ErrFixtureNotFound, path, scenario)
		case 1:
			return results[0], nil
		default:
			return results, nil
		}
	}

	m, ok := data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s (scenario %q)", ErrFixtureNotFound, path, scenario)
	}
	v, ok := m[scenario]
	if !ok {
		return nil, fmt.Errorf("%w: %s (scenario %q)", ErrFixtureNotFound, path, scenario)
	}
	return v, nil
}
