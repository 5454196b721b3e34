package internal

type AliasPolicy string

const (
	// AliasPolicyStrict aborts the whole batch when a selected descriptor has
	// no readable entry terms.
	AliasPolicyStrict AliasPolicy = "strict"
	// AliasPolicySkip drops only the offending descriptor.
	AliasPolicySkip AliasPolicy = "skip"
)

// ConditionRecord is the condensed form of one condition descriptor.
type ConditionRecord struct {
	Code    string   `json:"mesh_code"`
	Aliases []string `json:"entry_terms"`
}

type AliasRow struct {
	Alias string
	Term  string
}

type Resolution struct {
	Alias string
	Term  string
	Code  string
}
