package resume

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EducationLevel is an ordered degree ladder. The zero value means unknown.
type EducationLevel int

const (
	EducationUnknown EducationLevel = iota
	HighSchool
	Associate
	Bachelor
	Master
	PhD
)

var educationNames = map[EducationLevel]string{
	HighSchool: "HIGH_SCHOOL",
	Associate:  "ASSOCIATE",
	Bachelor:   "BACHELOR",
	Master:     "MASTER",
	PhD:        "PHD",
}

// Ordinal is the 0-based position on the ladder (HIGH_SCHOOL=0 .. PHD=4), or -1 when unknown.
func (e EducationLevel) Ordinal() int {
	if !e.Valid() {
		return -1
	}
	return int(e) - 1
}

// MaxOrdinal is the ordinal of the highest level.
const MaxOrdinal = int(PhD) - 1

func (e EducationLevel) Valid() bool {
	return e >= HighSchool && e <= PhD
}

func (e EducationLevel) String() string {
	if name, ok := educationNames[e]; ok {
		return name
	}
	return ""
}

// ParseEducationLevel accepts the canonical names case-insensitively.
func ParseEducationLevel(raw string) (EducationLevel, error) {
	clean := strings.ToUpper(strings.TrimSpace(raw))
	if clean == "" {
		return EducationUnknown, nil
	}
	for lvl, name := range educationNames {
		if name == clean {
			return lvl, nil
		}
	}
	return EducationUnknown, fmt.Errorf("unknown education level %q", raw)
}

func (e EducationLevel) MarshalJSON() ([]byte, error) {
	if !e.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(e.String())
}

func (e *EducationLevel) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*e = EducationUnknown
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	lvl, err := ParseEducationLevel(s)
	if err != nil {
		return err
	}
	*e = lvl
	return nil
}

// MaxCertifications caps how many certification mentions are kept.
const MaxCertifications = 5

// Parsed is the structured view of a résumé used for scoring.
type Parsed struct {
	Skills          []string       `json:"skills"`
	ExperienceYears *int           `json:"experienceYears"`
	Education       EducationLevel `json:"education"`
	Certifications  []string       `json:"certifications"`
	TextPreview     string         `json:"textPreview,omitempty"`
}
