// Package pattern decides whether a syntax node type names a construct
// worth showing in the context header. Default rules apply to every
// language; per-language rules augment them and never replace them, and a
// language can opt into exact type-name matching.
package pattern

import (
	"regexp"
	"sync"

	"contextwin/types"
)

// Rule is one match rule from an ordered rule list. Key is the pattern
// text itself and doubles as the type key used to look up per-construct
// reduction behavior.
type Rule struct {
	Key     string
	Default bool // true for rules from the default set
}

// defaultPatterns qualify node types across all languages. Order matters:
// the first matching rule wins and its key becomes the node's type key.
var defaultPatterns = []string{
	"class",
	"function",
	"method",
	"for",
	"while",
	"if",
	"switch",
	"case",
}

// languagePatterns augment the defaults for grammars whose construct
// names don't contain the default words.
var languagePatterns = map[string][]string{
	"rust": {
		"impl_item",
		"struct_item",
		"enum_item",
		"loop_expression",
		"match_expression",
	},
	"go": {
		"type_declaration",
		"select_statement",
	},
	"ruby": {
		"module",
		"block",
	},
	"json": {
		"object",
		"pair",
	},
	"yaml": {
		"block_mapping_pair",
	},
	"markdown": {
		"section",
	},
	"terraform": {
		"block",
		"object_elem",
	},
	"vhdl": {
		"process_statement",
		"architecture_body",
		"entity_declaration",
	},
}

// exactLanguages hold patterns that must equal the node type verbatim
// rather than match as a whole word.
var exactLanguages = map[string]bool{
	"json":      true,
	"yaml":      true,
	"terraform": true,
}

// Matcher answers is-this-a-context-node queries. Matching is pure, so
// results are memoized per (type name, language) pair.
type Matcher struct {
	cfg types.ContextConfig

	mu     sync.RWMutex
	memo   map[memoKey]memoVal
	wordRE map[string]*regexp.Regexp
}

type memoKey struct {
	typeName string
	language string
}

type memoVal struct {
	rule Rule
	ok   bool
}

// NewMatcher builds a Matcher over the built-in tables merged with the
// user config's per-language additions.
func NewMatcher(cfg types.ContextConfig) *Matcher {
	return &Matcher{
		cfg:    cfg,
		memo:   make(map[memoKey]memoVal),
		wordRE: make(map[string]*regexp.Regexp),
	}
}

// Match reports whether typeName qualifies as a context construct for the
// given language and, if so, returns the rule that matched. Default rules
// are checked first, in order; language rules follow, also in order.
func (m *Matcher) Match(typeName, language string) (Rule, bool) {
	key := memoKey{typeName: typeName, language: language}

	m.mu.RLock()
	if v, hit := m.memo[key]; hit {
		m.mu.RUnlock()
		return v.rule, v.ok
	}
	m.mu.RUnlock()

	rule, ok := m.matchUncached(typeName, language)

	m.mu.Lock()
	m.memo[key] = memoVal{rule: rule, ok: ok}
	m.mu.Unlock()
	return rule, ok
}

// DefaultKey returns the type key for a node type: the first default
// pattern it matches as a whole word, or typeName itself when none do.
func (m *Matcher) DefaultKey(typeName string) string {
	for _, pat := range defaultPatterns {
		if m.wordMatch(pat, typeName) {
			return pat
		}
	}
	return typeName
}

func (m *Matcher) matchUncached(typeName, language string) (Rule, bool) {
	exact := exactLanguages[language] || m.cfg.ExactPatterns[language]

	// Default rules are always whole-word matched; exact matching only
	// governs a language's own rule list.
	for _, pat := range defaultPatterns {
		if m.wordMatch(pat, typeName) {
			return Rule{Key: pat, Default: true}, true
		}
	}

	for _, pat := range m.languageRules(language) {
		if exact {
			if pat == typeName {
				return Rule{Key: pat}, true
			}
		} else if m.wordMatch(pat, typeName) {
			return Rule{Key: pat}, true
		}
	}

	return Rule{}, false
}

// languageRules returns the built-in rules for a language followed by the
// user-configured additions, preserving order within each list.
func (m *Matcher) languageRules(language string) []string {
	builtin := languagePatterns[language]
	extra := m.cfg.Patterns[language]
	if len(extra) == 0 {
		return builtin
	}
	rules := make([]string, 0, len(builtin)+len(extra))
	rules = append(rules, builtin...)
	rules = append(rules, extra...)
	return rules
}

// wordMatch tests pat against typeName as a whole word, so "function"
// matches "function_definition" but "if" does not match "identifier".
// Underscores delimit words in grammar type names, so \b (which counts
// "_" as a word character) is not usable here.
func (m *Matcher) wordMatch(pat, typeName string) bool {
	m.mu.RLock()
	re := m.wordRE[pat]
	m.mu.RUnlock()

	if re == nil {
		compiled, err := regexp.Compile(`(?:^|[^0-9A-Za-z])` + regexp.QuoteMeta(pat) + `(?:$|[^0-9A-Za-z])`)
		if err != nil {
			// Inert rule: a pattern that cannot compile matches nothing.
			return false
		}
		m.mu.Lock()
		m.wordRE[pat] = compiled
		m.mu.Unlock()
		re = compiled
	}
	return re.MatchString(typeName)
}
