package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"

	"github.com/abhisek/kakomon/internal/grading"
)

// File names read by Load.
const (
	CatalogFile = "catalog.json"
	AnswersFile = "answers.json"
)

// SupportedMajor is the catalog schema major version this build reads.
const SupportedMajor = "v1"

// ErrUnsupportedVersion is returned when a document declares a schema
// version this build cannot read.
var ErrUnsupportedVersion = errors.New("unsupported catalog schema version")

type catalogDoc struct {
	SchemaVersion string     `json:"schema_version"`
	Questions     []Question `json:"questions"`
}

type answersDoc struct {
	SchemaVersion string                              `json:"schema_version"`
	Answers       map[string]map[string]grading.Value `json:"answers"`
}

// Load reads catalog.json and, if present, answers.json from dir. Answers
// from answers.json replace any answers embedded in the catalog.
func Load(dir string) (*Bank, error) {
	var doc catalogDoc
	if err := readDocument(filepath.Join(dir, CatalogFile), catalogSchema, &doc); err != nil {
		return nil, err
	}
	if err := checkVersion(doc.SchemaVersion); err != nil {
		return nil, fmt.Errorf("%s: %w", CatalogFile, err)
	}

	var ans answersDoc
	err := readDocument(filepath.Join(dir, AnswersFile), answersSchema, &ans)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := checkVersion(ans.SchemaVersion); err != nil {
			return nil, fmt.Errorf("%s: %w", AnswersFile, err)
		}
		if err := mergeAnswers(doc.Questions, ans.Answers); err != nil {
			return nil, err
		}
	}

	return New(doc.Questions)
}

func mergeAnswers(questions []Question, answers map[string]map[string]grading.Value) error {
	known := make(map[string]int, len(questions))
	for i, q := range questions {
		known[q.ID] = i
	}
	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var unknown []string
	for _, id := range ids {
		i, ok := known[id]
		if !ok {
			unknown = append(unknown, fmt.Sprintf("answers reference unknown question %q", id))
			continue
		}
		questions[i].Answers = answers[id]
	}
	if len(unknown) > 0 {
		return &ValidationError{Problems: unknown}
	}
	return nil
}

// checkVersion accepts an empty version (treated as v1) or any semantic
// version with the supported major, with or without a leading "v".
func checkVersion(v string) error {
	if v == "" {
		return nil
	}
	canonical := "v" + strings.TrimPrefix(v, "v")
	if !semver.IsValid(canonical) {
		return fmt.Errorf("%w: %q is not a semantic version", ErrUnsupportedVersion, v)
	}
	if semver.Major(canonical) != SupportedMajor {
		return fmt.Errorf("%w: %s (want %s.x)", ErrUnsupportedVersion, v, SupportedMajor)
	}
	return nil
}

// readDocument reads path, validates it against schema and decodes it into out.
func readDocument(path string, schema *docSchema, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	compiled, err := schema.compile()
	if err != nil {
		return fmt.Errorf("compile schema %q: %w", schema.name, err)
	}
	if err := compiled.Validate(parsed); err != nil {
		return fmt.Errorf("%s schema validation failed: %w", filepath.Base(path), err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// docSchema is a JSON schema definition compiled on first use.
type docSchema struct {
	name       string
	definition map[string]any

	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

func (s *docSchema) compile() (*jsonschema.Schema, error) {
	s.once.Do(func() {
		// The compiler wants plain decoded JSON, not Go literals.
		defBytes, err := json.Marshal(s.definition)
		if err != nil {
			s.err = fmt.Errorf("marshal schema definition: %w", err)
			return
		}
		var defParsed any
		if err := json.Unmarshal(defBytes, &defParsed); err != nil {
			s.err = fmt.Errorf("parse schema definition: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		url := fmt.Sprintf("schema://%s.json", s.name)
		if err := c.AddResource(url, defParsed); err != nil {
			s.err = fmt.Errorf("add resource: %w", err)
			return
		}
		s.compiled, s.err = c.Compile(url)
	})
	return s.compiled, s.err
}

var answerValueSchema = map[string]any{
	"anyOf": []any{
		map[string]any{"type": "string"},
		map[string]any{"type": "number"},
		map[string]any{
			"type":     "object",
			"required": []any{"chars"},
			"properties": map[string]any{
				"chars": map[string]any{"type": "array"},
			},
		},
		map[string]any{
			"type":     "object",
			"required": []any{"raw"},
			"properties": map[string]any{
				"raw": map[string]any{"type": "string"},
			},
		},
	},
}

var answerGroupsSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": answerValueSchema,
}

var catalogSchema = &docSchema{
	name: "kakomon-catalog",
	definition: map[string]any{
		"type":     "object",
		"required": []any{"questions"},
		"properties": map[string]any{
			"schema_version": map[string]any{"type": "string"},
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []any{"question_id"},
					"properties": map[string]any{
						"question_id": map[string]any{"type": "string", "minLength": 1},
						"pattern_id":  map[string]any{"type": "string"},
						"difficulty":  map[string]any{"type": "integer"},
						"tags": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
						"exam_id": map[string]any{"type": "string"},
						"title":   map[string]any{"type": "string"},
						"blank_rules": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"allowed_chars": map[string]any{
									"type":  "array",
									"items": map[string]any{"type": "string"},
								},
							},
						},
						"answers": answerGroupsSchema,
					},
				},
			},
		},
	},
}

var answersSchema = &docSchema{
	name: "kakomon-answers",
	definition: map[string]any{
		"type":     "object",
		"required": []any{"answers"},
		"properties": map[string]any{
			"schema_version": map[string]any{"type": "string"},
			"answers": map[string]any{
				"type":                 "object",
				"additionalProperties": answerGroupsSchema,
			},
		},
	},
}
