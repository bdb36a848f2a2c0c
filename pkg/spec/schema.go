package spec

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// SchemaRegistry manages the CUE schemas used to validate document shape.
type SchemaRegistry struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
	mu      sync.RWMutex
}

// NewSchemaRegistry creates a registry with the built-in document schema.
func NewSchemaRegistry() *SchemaRegistry {
	sr := &SchemaRegistry{
		ctx:     cuecontext.New(),
		schemas: make(map[string]cue.Value),
	}
	sr.RegisterSchema("document", builtinDocumentSchema)
	return sr
}

// RegisterSchema compiles and stores a CUE schema under the given name.
func (sr *SchemaRegistry) RegisterSchema(name, schema string) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	val := sr.ctx.CompileString(schema)
	if err := val.Err(); err != nil {
		return fmt.Errorf("compile schema %s: %w", name, err)
	}
	sr.schemas[name] = val
	return nil
}

// ValidateAgainstSchema validates data against a named schema.
func (sr *SchemaRegistry) ValidateAgainstSchema(name string, data interface{}) error {
	sr.mu.RLock()
	schema, ok := sr.schemas[name]
	sr.mu.RUnlock()
	if !ok {
		return fmt.Errorf("schema %s not found", name)
	}

	dataVal := sr.ctx.Encode(data)
	if err := dataVal.Err(); err != nil {
		return fmt.Errorf("encode data: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Document")).Unify(dataVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("document validation failed: %w", err)
	}
	return nil
}

// ValidateDocument validates a raw spec document against the document schema.
func (sr *SchemaRegistry) ValidateDocument(doc map[string]interface{}) error {
	return sr.ValidateAgainstSchema("document", doc)
}

// builtinDocumentSchema is the top-level document shape. The struct is
// closed, so unknown domain names fail here; domain payloads stay open
// because field-level rules are enforced per domain, where a violation must
// only fail that domain.
const builtinDocumentSchema = `
#Document: {
	datetime?: {...}
	system?: {...}
	contacts?: {...}
	sms?: {...}
	calendar?: {...}
	recipe?: {...}
	tasks?: {...}
	expense?: {...}
	music?: {...}
	joplin?: {...}
	osmand?: {...}
	audio_recorder?: {...}
	markor?: {...}
	files?: {...}
	opentracks?: {...}
	gallery?: {...}
}
`
