package spec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Format identifies the serialization of a spec document.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatStarlark Format = "starlark"
)

// Document is the raw, structurally validated input document: top-level keys
// are known domain names, payloads are untouched. Per-domain parsing happens
// later so that one domain's bad payload cannot reject the others.
type Document struct {
	// Source is the file the document was loaded from, if any.
	Source string

	// Raw maps each domain present in the input to its raw payload.
	Raw map[Domain]json.RawMessage
}

// Parser turns raw spec documents into validated RunSpecs.
type Parser struct {
	validator *validator.Validate
	schemas   *SchemaRegistry
}

// NewParser creates a parser with the built-in document schema registered.
func NewParser() *Parser {
	return &Parser{
		validator: validator.New(),
		schemas:   NewSchemaRegistry(),
	}
}

// LoadFile reads and structurally validates a spec document. The format is
// chosen by extension: .json, .yaml/.yml, or .star (a Starlark script whose
// global "spec" value is the document).
func (p *Parser) LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec file: %w", err)
	}

	var format Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		format = FormatJSON
	case ".yaml", ".yml":
		format = FormatYAML
	case ".star":
		format = FormatStarlark
	default:
		return nil, fmt.Errorf("unsupported spec file extension: %s", filepath.Ext(path))
	}

	doc, err := p.ParseDocument(data, format)
	if err != nil {
		return nil, err
	}
	doc.Source = path
	return doc, nil
}

// ParseDocument parses the raw bytes of a spec document and validates its
// top-level structure. Any unknown domain name fails the whole document.
func (p *Parser) ParseDocument(data []byte, format Format) (*Document, error) {
	jsonData := data
	switch format {
	case FormatJSON:
	case FormatYAML:
		var tree map[string]interface{}
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("decode yaml document: %w", err)
		}
		var err error
		jsonData, err = json.Marshal(tree)
		if err != nil {
			return nil, fmt.Errorf("normalize yaml document: %w", err)
		}
	case FormatStarlark:
		var err error
		jsonData, err = evalStarlarkSpec(data)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported spec format: %s", format)
	}

	var top map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(jsonData))
	if err := dec.Decode(&top); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	raw := make(map[Domain]json.RawMessage, len(top))
	for key, payload := range top {
		d := Domain(key)
		if err := d.Validate(); err != nil {
			return nil, err
		}
		raw[d] = payload
	}

	// Validate the document shape against the CUE schema. The schema keeps
	// domain payloads open so that a bad field inside a recognized domain
	// stays a per-domain failure, not a document-level one.
	var shape map[string]interface{}
	if err := json.Unmarshal(jsonData, &shape); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if err := p.schemas.ValidateDocument(shape); err != nil {
		return nil, err
	}

	return &Document{Raw: raw}, nil
}

// ParseRunSpec parses each domain payload of a document into its typed spec.
// A payload that fails its field rules lands in RunSpec.Rejected instead of
// aborting the run.
func (p *Parser) ParseRunSpec(doc *Document, opts Options) *RunSpec {
	rs := &RunSpec{
		Options:  opts,
		Domains:  make(map[Domain]DomainSpec, len(doc.Raw)),
		Rejected: make(map[Domain]error),
	}
	for d, payload := range doc.Raw {
		ds, err := p.parseDomain(d, payload)
		if err != nil {
			rs.Rejected[d] = err
			continue
		}
		rs.Domains[d] = ds
	}
	return rs
}

// parseDomain decodes and validates one domain payload.
func (p *Parser) parseDomain(d Domain, payload json.RawMessage) (DomainSpec, error) {
	var ds DomainSpec
	switch d {
	case DomainDatetime:
		ds = &DatetimeSpec{}
	case DomainSystem:
		ds = &SystemSpec{}
	case DomainContacts:
		ds = &ContactsSpec{}
	case DomainSms:
		ds = &SmsSpec{}
	case DomainCalendar:
		ds = &CalendarSpec{}
	case DomainRecipe:
		ds = &RecipeSpec{}
	case DomainTasks:
		ds = &TasksSpec{}
	case DomainExpense:
		ds = &ExpenseSpec{}
	case DomainMusic:
		ds = &MusicSpec{}
	case DomainJoplin:
		ds = &JoplinSpec{}
	case DomainOsmand:
		ds = &OsmandSpec{}
	case DomainAudioRecorder:
		ds = &AudioRecorderSpec{}
	case DomainMarkor:
		ds = &MarkorSpec{}
	case DomainFiles:
		ds = &FilesSpec{}
	case DomainOpenTracks:
		ds = &OpenTracksSpec{}
	case DomainGallery:
		ds = &GallerySpec{}
	default:
		return nil, fmt.Errorf("unknown domain: %s", d)
	}

	if err := decodeStrict(payload, ds); err != nil {
		return nil, fmt.Errorf("%s: %w", d, err)
	}
	if err := p.validator.Struct(ds); err != nil {
		return nil, fmt.Errorf("%s: %w", d, err)
	}
	if err := checkDomainInvariants(ds); err != nil {
		return nil, fmt.Errorf("%s: %w", d, err)
	}
	return ds, nil
}

// decodeStrict decodes JSON into v, rejecting unknown fields.
func decodeStrict(raw json.RawMessage, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}

// checkDomainInvariants enforces the cross-field rules that struct tags
// cannot express.
func checkDomainInvariants(ds DomainSpec) error {
	switch s := ds.(type) {
	case *DatetimeSpec:
		if s.UseRandomDatetime && s.RandomWindowCenter == "" {
			return fmt.Errorf("use_random_datetime requires random_window_center")
		}
		if s.Datetime != "" && s.UseRandomDatetime {
			return fmt.Errorf("datetime and use_random_datetime are mutually exclusive")
		}
	case *SystemSpec:
		if s.Brightness != "" {
			if err := validateBrightness(s.Brightness); err != nil {
				return err
			}
		}
	case *GallerySpec:
		for i := range s.AddImages {
			img := &s.AddImages[i]
			hasText := img.Text != ""
			hasSrc := img.Src != ""
			if hasText == hasSrc {
				return fmt.Errorf("add_images[%d]: exactly one of text or src must be set", i)
			}
		}
	case *MusicSpec:
		known := make(map[string]bool, len(s.AddMusicFiles))
		for i := range s.AddMusicFiles {
			known[s.AddMusicFiles[i].Name] = true
		}
		for i := range s.AddPlaylists {
			for _, song := range s.AddPlaylists[i].Songs {
				if !known[song] {
					return fmt.Errorf("add_playlists[%d]: song %q is not in add_music_files", i, song)
				}
			}
		}
	}
	return nil
}

// validateBrightness accepts "min", "max", or an integer percentage.
func validateBrightness(v string) error {
	if v == "min" || v == "max" {
		return nil
	}
	pct, err := strconv.Atoi(strings.TrimSuffix(v, "%"))
	if err != nil || pct < 0 || pct > 100 {
		return fmt.Errorf("invalid brightness %q: must be min, max, or a percentage 0-100", v)
	}
	return nil
}
