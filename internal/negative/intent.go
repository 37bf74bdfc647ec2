package negative

import (
	"strings"

	"github.com/mbicorp/adbid-engine/internal/domain"
)

// IntentKeywordSet is one priority tier of the layered keyword-set scan:
// all keywords in the set map to the same intent tag.
type IntentKeywordSet struct {
	Tag      domain.IntentTag
	Keywords []string
}

// IntentTaggerConfig is the immutable replacement for the source's mutable
// `addCustomKeywords` whitelist registry (spec.md §9): a build-once,
// read-only set of keyword tiers in priority order (child > adult > concern
// > info > generic). Runtime re-tagging is done by constructing a new
// IntentTagger from a new config, never by mutating this one in place.
type IntentTaggerConfig struct {
	Sets []IntentKeywordSet
}

// DefaultIntentTaggerConfig returns the calibration pinned by spec.md
// §4.10's layered keyword-set scan.
func DefaultIntentTaggerConfig() IntentTaggerConfig {
	return IntentTaggerConfig{
		Sets: []IntentKeywordSet{
			{domain.IntentChild, []string{"kids", "child", "children", "baby", "toddler", "infant"}},
			{domain.IntentAdult, []string{"adult", "men's", "women's", "senior"}},
			{domain.IntentConcern, []string{"allergy", "sensitive", "pain", "relief", "problem", "issue"}},
			{domain.IntentInfo, []string{"how to", "what is", "guide", "review", "vs", "comparison"}},
		},
	}
}

// WithExtraKeywords returns a new IntentTaggerConfig with additional
// keywords appended to the named tier, leaving the receiver untouched.
// This is the config's answer to the source's `addCustomKeywords` mutator:
// producing a new, immutable instance rather than mutating shared state.
func (c IntentTaggerConfig) WithExtraKeywords(tag domain.IntentTag, extra ...string) IntentTaggerConfig {
	sets := make([]IntentKeywordSet, len(c.Sets))
	copy(sets, c.Sets)
	for i, s := range sets {
		if s.Tag == tag {
			merged := make([]string, len(s.Keywords), len(s.Keywords)+len(extra))
			copy(merged, s.Keywords)
			merged = append(merged, extra...)
			sets[i] = IntentKeywordSet{Tag: tag, Keywords: merged}
			break
		}
	}
	return IntentTaggerConfig{Sets: sets}
}

// IntentTagger classifies normalized search-query strings against a frozen
// IntentTaggerConfig. It holds no mutable state after construction.
type IntentTagger struct {
	cfg IntentTaggerConfig
}

// NewIntentTagger builds an IntentTagger from a config snapshot. The config
// is copied defensively so a caller mutating its own slice afterward cannot
// change this tagger's behavior.
func NewIntentTagger(cfg IntentTaggerConfig) IntentTagger {
	sets := make([]IntentKeywordSet, len(cfg.Sets))
	copy(sets, cfg.Sets)
	return IntentTagger{cfg: IntentTaggerConfig{Sets: sets}}
}

// Classify derives the intent tag for a normalized query string by scanning
// tiers in the order the config declares them.
func (t IntentTagger) Classify(normalizedQuery string) domain.IntentTag {
	q := strings.ToLower(normalizedQuery)
	for _, set := range t.cfg.Sets {
		for _, kw := range set.Keywords {
			if strings.Contains(q, kw) {
				return set.Tag
			}
		}
	}
	return domain.IntentGeneric
}

var defaultTagger = NewIntentTagger(DefaultIntentTaggerConfig())

// ClassifyIntent derives the intent tag for a normalized query string using
// the default tagger configuration. Callers needing a custom whitelist
// should build their own IntentTagger via NewIntentTagger instead.
func ClassifyIntent(normalizedQuery string) domain.IntentTag {
	return defaultTagger.Classify(normalizedQuery)
}

// ClusterKey builds the `canonicalQuery :: intentTag` key C10 groups search
// terms by.
func ClusterKey(canonicalQuery string, intent domain.IntentTag) string {
	return canonicalQuery + " :: " + string(intent)
}
