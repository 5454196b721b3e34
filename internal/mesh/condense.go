package mesh

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"meshalias/internal"
	"meshalias/internal/util"
)

var (
	ErrMissingTerm        = errors.New("could not retrieve MeSH term")
	ErrMissingCode        = errors.New("could not retrieve MeSH code")
	ErrMissingEntryTerms  = errors.New("could not retrieve entry terms")
	errUnknownAliasPolicy = errors.New("unknown alias policy")
)

// Schema names the elements the condenser reads from each descriptor.
type Schema struct {
	ID             string
	NamePath       []string
	CodePath       []string
	ConceptList    string
	Concept        string
	TermList       string
	Term           string
	TermText       string
	CategoryMarker string
}

func DefaultSchema() Schema {
	return Schema{
		ID:             "DescriptorUI",
		NamePath:       []string{"DescriptorName", "String"},
		CodePath:       []string{"TreeNumberList", "TreeNumber"},
		ConceptList:    "ConceptList",
		Concept:        "Concept",
		TermList:       "TermList",
		Term:           "Term",
		TermText:       "String",
		CategoryMarker: "C",
	}
}

// FieldError reports which mandatory part of a selected descriptor was unreadable.
type FieldError struct {
	Index      int
	Descriptor string
	Err        error
}

func (e *FieldError) Error() string {
	if e.Descriptor != "" {
		return fmt.Sprintf("%v of descriptor %d (%s)", e.Err, e.Index, e.Descriptor)
	}
	return fmt.Sprintf("%v of descriptor %d", e.Err, e.Index)
}

func (e *FieldError) Unwrap() error { return e.Err }

type BuildStats struct {
	Seen       int
	Selected   int
	Skipped    int
	Duplicates int
}

type Condenser struct {
	schema Schema
	policy internal.AliasPolicy
	log    zerolog.Logger
}

func NewCondenser(schema Schema, policy internal.AliasPolicy, log zerolog.Logger) (*Condenser, error) {
	switch policy {
	case "":
		policy = internal.AliasPolicyStrict
	case internal.AliasPolicyStrict, internal.AliasPolicySkip:
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownAliasPolicy, policy)
	}
	return &Condenser{schema: schema, policy: policy, log: log}, nil
}

func (c *Condenser) code(entry *Node) (string, bool) {
	leaf := entry.Path(c.schema.CodePath...)
	if leaf == nil || leaf.Text == "" {
		return "", false
	}
	return leaf.Text, true
}

// IsSelectable reports whether the entry's first category code carries the
// configured marker. Entries without a readable code are never selectable.
func (c *Condenser) IsSelectable(entry *Node) bool {
	code, ok := c.code(entry)
	if !ok {
		return false
	}
	return strings.HasPrefix(code, c.schema.CategoryMarker)
}

// Condense flattens one selected entry into its canonical term and record.
// The returned error wraps ErrMissingTerm, ErrMissingCode or ErrMissingEntryTerms.
func (c *Condenser) Condense(entry *Node) (string, internal.ConditionRecord, error) {
	name := entry.Path(c.schema.NamePath...)
	if name == nil || name.Text == "" {
		return "", internal.ConditionRecord{}, ErrMissingTerm
	}
	term := util.Lower(name.Text)

	code, ok := c.code(entry)
	if !ok {
		return "", internal.ConditionRecord{}, ErrMissingCode
	}

	aliases, err := c.aliases(entry)
	if err != nil {
		return "", internal.ConditionRecord{}, err
	}

	return term, internal.ConditionRecord{Code: code, Aliases: aliases}, nil
}

func (c *Condenser) aliases(entry *Node) ([]string, error) {
	concepts := entry.Child(c.schema.ConceptList)
	if concepts == nil {
		return nil, ErrMissingEntryTerms
	}
	out := []string{}
	for _, concept := range concepts.ChildrenNamed(c.schema.Concept) {
		terms := concept.Child(c.schema.TermList)
		if terms == nil {
			return nil, ErrMissingEntryTerms
		}
		for _, t := range terms.ChildrenNamed(c.schema.Term) {
			text := t.Child(c.schema.TermText)
			if text == nil || text.Text == "" {
				return nil, ErrMissingEntryTerms
			}
			out = append(out, util.Lower(text.Text))
		}
	}
	return out, nil
}

// BuildMapping condenses every selectable child of root. A fatal error
// discards everything collected so far.
func (c *Condenser) BuildMapping(root *Node) (*Mapping, BuildStats, error) {
	stats := BuildStats{}
	if root == nil {
		return nil, stats, errors.New("descriptor document has no root")
	}

	m := NewMapping()
	for i, entry := range root.Children {
		stats.Seen++
		if !c.IsSelectable(entry) {
			c.log.Debug().Int("index", i).Str("descriptor", c.descriptorID(entry)).Msg("descriptor not selected")
			continue
		}

		term, rec, err := c.Condense(entry)
		if err != nil {
			ferr := &FieldError{Index: i, Descriptor: c.descriptorID(entry), Err: err}
			if errors.Is(err, ErrMissingEntryTerms) && c.policy == internal.AliasPolicySkip {
				c.log.Warn().Err(ferr).Msg("skipping descriptor")
				stats.Skipped++
				continue
			}
			return nil, stats, ferr
		}

		stats.Selected++
		if m.Set(term, rec) {
			stats.Duplicates++
		}
	}
	return m, stats, nil
}

func (c *Condenser) descriptorID(entry *Node) string {
	if c.schema.ID == "" {
		return ""
	}
	if n := entry.Child(c.schema.ID); n != nil {
		return strings.TrimSpace(n.Text)
	}
	return ""
}
