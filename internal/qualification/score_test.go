package qualification

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hiremate-backend/internal/resume"
)

var seniorFullStack = Job{
	Title:       "Senior Full Stack Engineer",
	Description: "Looking for JavaScript, React, Node.js expert with at least 5 years experience.",
	Category:    "Engineering",
}

func intp(v int) *int { return &v }

func TestScoreStrongCandidateQualifies(t *testing.T) {
	cv := resume.Parsed{
		Skills:          []string{"javascript", "react", "node", "html", "css"},
		ExperienceYears: intp(6),
		Education:       resume.Master,
		Certifications:  []string{"AWS Certified Developer"},
	}

	got := Score(seniorFullStack, cv)

	assert.Equal(t, 91.0, got.Score)
	assert.Equal(t, StatusQualified, got.Status)
	assert.Equal(t, Breakdown{Skills: 40, Experience: 30, Education: 15, Certifications: 6}, got.Breakdown)
	assert.ElementsMatch(t, []string{"javascript", "react"}, got.JobSkills)
	assert.ElementsMatch(t, []string{"javascript", "react", "html", "css"}, got.CandidateSkills)
}

func TestScoreBorderlineCandidateNeedsReview(t *testing.T) {
	cv := resume.Parsed{
		Skills:          []string{"react"},
		ExperienceYears: intp(3),
		Education:       resume.Bachelor,
	}

	got := Score(seniorFullStack, cv)

	assert.Equal(t, 48.0, got.Score)
	assert.Equal(t, StatusPendingReview, got.Status)
	assert.Equal(t, "Requires manual review (score between 40% and 59%)", got.Decision)
}

func TestScoreWeakCandidateRejected(t *testing.T) {
	cv := resume.Parsed{
		Skills:          []string{"python"},
		ExperienceYears: intp(1),
		Education:       resume.HighSchool,
	}

	got := Score(seniorFullStack, cv)

	assert.Equal(t, 6.0, got.Score)
	assert.Equal(t, StatusRejected, got.Status)
}

func TestScoreEmptyInputsNeverNaN(t *testing.T) {
	got := Score(Job{}, resume.Parsed{})
	assert.Equal(t, 0.0, got.Score)
	assert.Equal(t, 0.0, got.Breakdown.Skills)
	assert.Equal(t, StatusRejected, got.Status)

	got = Score(Job{Title: "Office manager"}, resume.Parsed{Skills: []string{"react"}})
	assert.Equal(t, 0.0, got.Breakdown.Skills)

	got = Score(seniorFullStack, resume.Parsed{Skills: nil, ExperienceYears: intp(10)})
	assert.Equal(t, 0.0, got.Breakdown.Skills)
	assert.Equal(t, 30.0, got.Breakdown.Experience)
}

func TestExperienceBands(t *testing.T) {
	cases := []struct {
		years    *int
		required *int
		want     float64
	}{
		{nil, intp(4), 0},
		{intp(0), nil, 0},
		{intp(4), intp(4), 1},
		{intp(3), intp(4), 0.85},
		{intp(2), intp(4), 0.6},
		{intp(1), intp(4), 0.2},
		{intp(3), nil, 0.6},
		{intp(12), nil, 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, experienceScore(tc.years, tc.required))
	}
}

func TestEducationPenalty(t *testing.T) {
	cases := []struct {
		candidate resume.EducationLevel
		required  resume.EducationLevel
		want      float64
	}{
		{resume.EducationUnknown, resume.Bachelor, 0},
		{resume.Master, resume.Bachelor, 1},
		{resume.Bachelor, resume.Master, 0.7},
		{resume.Associate, resume.Master, 0.4},
		{resume.HighSchool, resume.PhD, 0},
		{resume.PhD, resume.EducationUnknown, 1},
		{resume.HighSchool, resume.EducationUnknown, 0},
		{resume.Bachelor, resume.EducationUnknown, 0.5},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, educationScore(tc.candidate, tc.required), 1e-9, "%s vs %s", tc.candidate, tc.required)
	}
}

func TestEducationRequirementReadFromDescription(t *testing.T) {
	job := Job{Title: "Data Scientist", Description: "Python. Master's degree required."}
	got := Score(job, resume.Parsed{Skills: []string{"python"}, Education: resume.Bachelor})
	assert.Equal(t, 14.0, got.Breakdown.Education)
}

func TestStructuredRequirementsOverrideText(t *testing.T) {
	job := seniorFullStack
	job.MinYears = intp(8)
	got := Score(job, resume.Parsed{ExperienceYears: intp(6)})
	assert.Equal(t, 25.5, got.Breakdown.Experience)
}

func TestCertificationSteps(t *testing.T) {
	assert.Equal(t, 0.0, certificationScore(0))
	assert.Equal(t, 0.6, certificationScore(1))
	assert.Equal(t, 0.8, certificationScore(2))
	assert.Equal(t, 1.0, certificationScore(3))
	assert.Equal(t, 1.0, certificationScore(5))
}

func TestBandBoundaries(t *testing.T) {
	cases := map[float64]Status{
		0:     StatusRejected,
		39.99: StatusRejected,
		40:    StatusPendingReview,
		59.99: StatusPendingReview,
		60:    StatusQualified,
		100:   StatusQualified,
	}
	for score, want := range cases {
		got, decision := Band(score)
		assert.Equal(t, want, got, "score %v", score)
		assert.NotEmpty(t, decision)
	}
}

func TestScoreAlwaysInRange(t *testing.T) {
	levels := []resume.EducationLevel{resume.EducationUnknown, resume.HighSchool, resume.Bachelor, resume.PhD}
	years := []*int{nil, intp(0), intp(2), intp(5), intp(40)}
	skillSets := [][]string{nil, {"react"}, {"javascript", "react", "sql", "docker"}}
	for _, lvl := range levels {
		for _, y := range years {
			for _, s := range skillSets {
				got := Score(seniorFullStack, resume.Parsed{Skills: s, ExperienceYears: y, Education: lvl, Certifications: s})
				assert.GreaterOrEqual(t, got.Score, 0.0)
				assert.LessOrEqual(t, got.Score, 100.0)
				want, _ := Band(got.Score)
				assert.Equal(t, want, got.Status)
			}
		}
	}
}
