package compiler

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/calc/internal/ir"
)

// Source is a loaded, not yet compiled, dictionary.
type Source struct {
	Path       string
	Dictionary *ir.Dictionary
	Positions  map[string]token.Pos // nil for YAML sources
}

// LoadError reports a dictionary source that could not be read.
type LoadError struct {
	Path    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// LoadDictionary reads a dictionary from path.
//
// A directory is loaded as a CUE package. Files are dispatched on their
// extension: .cue and .json are evaluated by CUE (JSON is valid CUE),
// .yaml and .yml are decoded strictly with yaml.v3.
func LoadDictionary(path string) (*Source, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Path: path, Message: "dictionary not found"}
	}
	if err != nil {
		return nil, &LoadError{Path: path, Message: err.Error()}
	}

	if info.IsDir() {
		return loadCUEDir(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: err.Error()}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dict, err := DecodeYAML(bytes.NewReader(data))
		if err != nil {
			return nil, &LoadError{Path: path, Message: err.Error()}
		}
		return &Source{Path: path, Dictionary: dict}, nil
	case ".cue", ".json":
		v := cuecontext.New().CompileBytes(data, cue.Filename(path))
		return fromCUE(path, v)
	}
	return nil, &LoadError{Path: path, Message: "unsupported file type, expected .cue, .json, .yaml or .yml"}
}

func loadCUEDir(dir string) (*Source, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Path: dir, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Path: dir, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}
	return fromCUE(dir, cuecontext.New().BuildInstance(inst))
}

func fromCUE(path string, v cue.Value) (*Source, error) {
	dict, pos, err := CompileDictionary(v)
	if err != nil {
		le := &LoadError{Path: path, Message: err.Error()}
		if ce, ok := err.(*CompileError); ok {
			le.Message = ce.Field + ": " + ce.Message
			le.Pos = ce.Pos
		}
		return nil, le
	}
	return &Source{Path: path, Dictionary: dict, Positions: pos}, nil
}

// DecodeYAML decodes a dictionary document. Unknown fields are rejected.
func DecodeYAML(r io.Reader) (*ir.Dictionary, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var dict ir.Dictionary
	if err := dec.Decode(&dict); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty dictionary document")
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &dict, nil
}
