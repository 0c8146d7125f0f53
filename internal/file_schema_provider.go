package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/meridian-gis/formkit"
)

// fileSchemaProvider loads layer field definitions from JSON files on
// disk. Each layer has a <layer>_fields.json file holding an ordered
// field array. Files are read once and cached.
type fileSchemaProvider struct {
	mu     sync.RWMutex
	dir    string
	layers map[string][]formkit.Field
}

const fieldFileSuffix = "_fields.json"

// NewFileSchemaProvider scans a directory for *_fields.json files and
// serves the field definitions they contain.
func NewFileSchemaProvider(dir string) (formkit.SchemaProvider, error) {
	provider := &fileSchemaProvider{
		dir:    dir,
		layers: make(map[string][]formkit.Field),
	}
	if err := provider.scan(); err != nil {
		return nil, err
	}
	return provider, nil
}

func (p *fileSchemaProvider) scan() error {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return fmt.Errorf("read field directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fieldFileSuffix) {
			continue
		}
		layer := strings.TrimSuffix(entry.Name(), fieldFileSuffix)
		fields, err := p.loadFile(filepath.Join(p.dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("layer '%s': %w", layer, err)
		}
		p.layers[layer] = fields
	}
	if len(p.layers) == 0 {
		return fmt.Errorf("no %s files found in %s", fieldFileSuffix, p.dir)
	}
	return nil
}

func (p *fileSchemaProvider) loadFile(path string) ([]formkit.Field, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read field file: %w", err)
	}
	var raw []struct {
		Name  string `json:"name"`
		Alias string `json:"alias"`
		Type  string `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse field file: %w", err)
	}
	fields := make([]formkit.Field, 0, len(raw))
	for _, rf := range raw {
		if rf.Name == "" {
			return nil, fmt.Errorf("field with empty name")
		}
		fieldType, ok := formkit.ParseFieldType(rf.Type)
		if !ok {
			return nil, fmt.Errorf("field '%s' has unknown type '%s'", rf.Name, rf.Type)
		}
		alias := rf.Alias
		if alias == "" {
			alias = rf.Name
		}
		fields = append(fields, formkit.Field{Name: rf.Name, Alias: alias, Type: fieldType})
	}
	return fields, nil
}

func (p *fileSchemaProvider) GetFields(ctx context.Context, layer string) ([]formkit.Field, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	fields, ok := p.layers[layer]
	if !ok {
		return nil, formkit.NewLayerNotFoundError(layer)
	}
	out := make([]formkit.Field, len(fields))
	copy(out, fields)
	return out, nil
}

func (p *fileSchemaProvider) ListLayers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	layers := make([]string, 0, len(p.layers))
	for layer := range p.layers {
		layers = append(layers, layer)
	}
	sort.Strings(layers)
	return layers
}
