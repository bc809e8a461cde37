package engine

const (
	defaultSemanticThreshold = 0.75
	defaultExcerptRadius     = 24
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeRegexInvalid         = "regex_invalid"
	codeConditionUnknown     = "condition_type_unknown"
	codeRequirementInvalid   = "condition_requirement_invalid"
	codeConditionFieldBroken = "condition_field_unknown"
)

// Diagnostic reports a per-entry configuration problem found during a
// match pass. Diagnostics are collected, never thrown: a broken entry
// is excluded from the pass and the rest continue.
type Diagnostic struct {
	Severity Severity
	Code     string
	Message  string
	EntryID  string
	Keyword  string
}

// Context is the caller-supplied runtime state the condition gate
// evaluates against. Zero values mean "no information" and fail any
// condition that references them.
type Context struct {
	ActorRole         string
	IsOwner           bool
	CurrentLocation   string
	PresentCharacters []string
	CurrentEvents     []string
	OwnedItems        []string
	Relationships     map[string]string
	SecretsKnown      []string
	Reputation        *int
}

type Options struct {
	// SemanticThreshold is the minimum normalized similarity for a
	// semantic keyword to count as matched. Zero means the default.
	SemanticThreshold float64

	// ExcerptRadius is how many runes of surrounding text to keep on
	// each side of a hit in MatchResult excerpts.
	ExcerptRadius int

	// ConditionAliases maps author-defined condition type names onto
	// built-in context fields, loaded from the conditions schema.
	ConditionAliases map[string]string
}

// Engine evaluates World Info entries against conversation text and
// runtime context. It holds no entry state and performs no I/O; the
// caller owns the entry snapshot and its lifetime.
type Engine struct {
	threshold     float64
	excerptRadius int
	aliases       map[string]string
}

func New(opts Options) *Engine {
	threshold := opts.SemanticThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = defaultSemanticThreshold
	}
	radius := opts.ExcerptRadius
	if radius <= 0 {
		radius = defaultExcerptRadius
	}
	aliases := make(map[string]string, len(opts.ConditionAliases))
	for name, field := range opts.ConditionAliases {
		aliases[name] = field
	}
	return &Engine{
		threshold:     threshold,
		excerptRadius: radius,
		aliases:       aliases,
	}
}
