package protocol

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const (
	SchemaHello   = "hello.schema.json"
	SchemaWelcome = "welcome.schema.json"
	SchemaRequest = "request.schema.json"
	SchemaView    = "view.schema.json"
)

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func compileSchemas() {
	ents, err := schemaFS.ReadDir("schemas")
	if err != nil {
		schemasErr = err
		return
	}
	c := jsonschema.NewCompiler()
	var names []string
	for _, e := range ents {
		b, err := schemaFS.ReadFile("schemas/" + e.Name())
		if err != nil {
			schemasErr = err
			return
		}
		if err := c.AddResource(e.Name(), strings.NewReader(string(b))); err != nil {
			schemasErr = fmt.Errorf("%s: %w", e.Name(), err)
			return
		}
		names = append(names, e.Name())
	}
	schemas = make(map[string]*jsonschema.Schema, len(names))
	for _, n := range names {
		s, err := c.Compile(n)
		if err != nil {
			schemasErr = fmt.Errorf("%s: %w", n, err)
			return
		}
		schemas[n] = s
	}
}

// Schema returns the compiled wire schema called name.
func Schema(name string) (*jsonschema.Schema, error) {
	schemasOnce.Do(compileSchemas)
	if schemasErr != nil {
		return nil, schemasErr
	}
	s, ok := schemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	return s, nil
}

// Validate checks a decoded JSON value (as produced by json.Unmarshal into
// an interface{}) against the named schema.
func Validate(name string, v interface{}) error {
	s, err := Schema(name)
	if err != nil {
		return err
	}
	return s.Validate(v)
}
