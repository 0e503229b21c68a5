package research

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/fitforge-ai/fitforge/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

//go:embed prompt/research.md
var researchPromptRaw string

var researchPromptTmpl = template.Must(
	template.New("research").
		Funcs(template.FuncMap{"join": strings.Join}).
		Parse(researchPromptRaw))

type promptData struct {
	FitnessLevel string
	Age          int
	Gender       string
	Goals        []string
	Injuries     []string
	Query        string
}

// BuildPrompt assembles the search prompt from the profile fields
// present on the request. It is deterministic: the same request always
// yields the same prompt.
func BuildPrompt(req *model.AgentRequest) (string, error) {
	data := promptData{
		Query: req.Query,
	}

	if data.Query == "" {
		exerciseType := req.ExerciseType
		if exerciseType == "" {
			exerciseType = model.ExerciseTypeGeneral
		}
		data.Query = fmt.Sprintf("Find safe and effective %s exercises", exerciseType)
	}

	if profile := req.Profile; profile != nil {
		data.FitnessLevel = string(profile.FitnessLevel)
		data.Age = profile.Age
		data.Gender = profile.Gender
		data.Goals = profile.Goals
		for _, injury := range profile.Injuries {
			if injury.Type != "" {
				data.Injuries = append(data.Injuries, injury.Type)
			}
		}
	}
	if len(data.Goals) == 0 {
		data.Goals = req.Goals
	}

	var buf bytes.Buffer
	if err := researchPromptTmpl.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to build research prompt",
			goerr.T(model.ErrTagProcessing))
	}

	return buf.String(), nil
}
