package research

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/fitforge-ai/fitforge/pkg/model"
)

// Trusted citation sources: any .edu or .gov host, plus named
// organizations known for evidence-based fitness and health content.
var (
	defaultTrustedDomains = []string{".edu", ".gov"}

	defaultTrustedSources = []string{
		"pubmed.ncbi.nlm.nih.gov",
		"nih.gov",
		"who.int",
		"acsm.org",
		"nsca.com",
		"mayoclinic.org",
		"clevelandclinic.org",
		"health.harvard.edu",
		"examine.com",
	}
)

// ReliabilityScorer classifies citation trustworthiness against a
// fixed allow-list. The lists are immutable after construction.
type ReliabilityScorer struct {
	domains []string
	sources []string
}

// ScorerOption configures a ReliabilityScorer
type ScorerOption func(*ReliabilityScorer)

// WithTrustedDomains replaces the trusted domain suffixes
func WithTrustedDomains(domains []string) ScorerOption {
	return func(s *ReliabilityScorer) {
		s.domains = domains
	}
}

// WithTrustedSources replaces the named source allow-list
func WithTrustedSources(sources []string) ScorerOption {
	return func(s *ReliabilityScorer) {
		s.sources = sources
	}
}

// NewReliabilityScorer creates a scorer with the default trust lists
func NewReliabilityScorer(opts ...ScorerOption) *ReliabilityScorer {
	s := &ReliabilityScorer{
		domains: defaultTrustedDomains,
		sources: defaultTrustedSources,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score marks candidates without trustworthy citations as unreliable.
// Candidates already flagged (e.g. by the injury filter) are skipped.
// A candidate with at least one trusted citation stays reliable no
// matter what else it cites. Returns a new slice plus one warning per
// newly flagged candidate.
func (s *ReliabilityScorer) Score(candidates []model.ExerciseCandidate) ([]model.ExerciseCandidate, []string) {
	result := make([]model.ExerciseCandidate, 0, len(candidates))
	var warnings []string

	for _, c := range candidates {
		if !c.Reliable {
			result = append(result, c)
			continue
		}

		if len(c.Citations) == 0 {
			c = c.MarkUnreliable("No citations provided")
			warnings = append(warnings, fmt.Sprintf("%s: No citations provided", c.Name))
			result = append(result, c)
			continue
		}

		untrusted := make([]string, 0, len(c.Citations))
		trusted := false
		for _, citation := range c.Citations {
			if s.isTrusted(citation) {
				trusted = true
				break
			}
			untrusted = append(untrusted, citation)
		}

		if !trusted {
			warning := fmt.Sprintf("Sources not in trusted list: %s", strings.Join(untrusted, ", "))
			c = c.MarkUnreliable(warning)
			warnings = append(warnings, fmt.Sprintf("%s: %s", c.Name, warning))
		}

		result = append(result, c)
	}

	return result, warnings
}

func (s *ReliabilityScorer) isTrusted(citation string) bool {
	u, err := url.Parse(citation)
	if err != nil || u.Hostname() == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())

	for _, suffix := range s.domains {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	for _, source := range s.sources {
		if host == source || strings.HasSuffix(host, "."+source) {
			return true
		}
	}

	return false
}
