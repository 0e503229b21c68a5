package research

import (
	"fmt"
	"io"
	"strings"

	"github.com/fitforge-ai/fitforge/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// defaultContraindications maps an injury type to movement terms that
// are unsafe for it. Matching is case-insensitive over the candidate's
// combined name and description.
var defaultContraindications = map[string][]string{
	"knee":     {"high-impact", "jump", "plyometric", "deep squat"},
	"shoulder": {"overhead press", "bench press", "upright row"},
	"back":     {"deadlift", "bent-over row", "heavy lifting", "high-impact"},
	"wrist":    {"push-up", "handstand", "front rack"},
	"ankle":    {"jump", "sprint", "high-impact"},
	"hip":      {"deep squat", "lunge", "high-impact"},
}

// SafetyFilter flags exercise candidates contraindicated by the user's
// injuries. The rule table is immutable after construction.
type SafetyFilter struct {
	rules map[string][]string
}

// NewSafetyFilter creates a filter with the built-in contraindication
// table. Pass rules to replace it (used by custom rule files and tests).
func NewSafetyFilter(rules map[string][]string) *SafetyFilter {
	if rules == nil {
		rules = defaultContraindications
	}
	return &SafetyFilter{rules: rules}
}

// safetyRuleFile is the YAML shape of a custom contraindication table
type safetyRuleFile struct {
	Contraindications map[string][]string `yaml:"contraindications"`
}

// LoadSafetyRules reads a custom contraindication table. Entries merge
// over the built-in defaults, replacing per injury type.
func LoadSafetyRules(r io.Reader) (map[string][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read safety rules")
	}

	var file safetyRuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse safety rules",
			goerr.T(model.ErrTagConfiguration))
	}
	if len(file.Contraindications) == 0 {
		return nil, goerr.New("safety rules contain no contraindications",
			goerr.T(model.ErrTagConfiguration))
	}

	rules := make(map[string][]string, len(defaultContraindications)+len(file.Contraindications))
	for injury, terms := range defaultContraindications {
		rules[injury] = terms
	}
	for injury, terms := range file.Contraindications {
		rules[strings.ToLower(injury)] = terms
	}

	return rules, nil
}

// Apply flags candidates contraindicated by the profile's injuries.
// It never removes a candidate, only marks it unreliable with a
// warning naming the injury and the matched term; the first matching
// term wins. Returns a new slice, the input is untouched.
func (f *SafetyFilter) Apply(profile *model.UserProfile, candidates []model.ExerciseCandidate) []model.ExerciseCandidate {
	if profile == nil || len(profile.Injuries) == 0 {
		return candidates
	}

	result := make([]model.ExerciseCandidate, 0, len(candidates))
	for _, c := range candidates {
		text := strings.ToLower(c.Name + " " + c.Description)

		for _, injury := range profile.Injuries {
			injuryType := strings.ToLower(injury.Type)
			term := matchTerm(text, f.rules[injuryType])
			if term == "" {
				continue
			}

			c = c.MarkUnreliable(fmt.Sprintf(
				"May be contraindicated for %s injury: %s", injuryType, term))
			break
		}

		result = append(result, c)
	}

	return result
}

func matchTerm(text string, terms []string) string {
	for _, term := range terms {
		if strings.Contains(text, strings.ToLower(term)) {
			return term
		}
	}
	return ""
}
