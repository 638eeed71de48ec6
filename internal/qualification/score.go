// Package qualification scores a parsed résumé against a job posting.
package qualification

import (
	"math"

	"hiremate-backend/internal/resume"
	"hiremate-backend/internal/skills"
)

// Status is the application status a qualification score maps to.
type Status string

const (
	StatusRejected      Status = "REJECTED"
	StatusPendingReview Status = "PENDING_REVIEW"
	StatusQualified     Status = "QUALIFIED_FOR_INTERVIEW"
)

const (
	weightSkills         = 40
	weightExperience     = 30
	weightEducation      = 20
	weightCertifications = 10

	rejectBelow  = 40
	qualifyFrom  = 60
	noReqYearCap = 5
	eduPenalty   = 0.3
)

// Job is the subset of a posting the scorer reads.
type Job struct {
	Title       string
	Description string
	Category    string
	// MinYears and Education, when set, override what is parsed from Description.
	MinYears  *int
	Education resume.EducationLevel
}

// Breakdown holds each weighted sub-score (already multiplied by its weight).
type Breakdown struct {
	Skills         float64 `json:"skills"`
	Experience     float64 `json:"experience"`
	Education      float64 `json:"education"`
	Certifications float64 `json:"certifications"`
}

// Result is the outcome of Score.
type Result struct {
	Score           float64   `json:"score"`
	Status          Status    `json:"status"`
	Decision        string    `json:"decision"`
	Breakdown       Breakdown `json:"breakdown"`
	JobSkills       []string  `json:"jobSkills"`
	CandidateSkills []string  `json:"candidateSkills"`
}

// Score rates how well a résumé fits a job on a 0..100 scale.
func Score(job Job, cv resume.Parsed) Result {
	jobSkills := skills.JobKeywords(job.Title, job.Description, job.Category)
	candidateSkills := skills.NormalizeAll(cv.Skills)

	s := skillScore(jobSkills, candidateSkills)
	e := experienceScore(cv.ExperienceYears, requiredYears(job))
	d := educationScore(cv.Education, requiredEducation(job))
	c := certificationScore(len(cv.Certifications))

	total := round2(s*weightSkills + e*weightExperience + d*weightEducation + c*weightCertifications)
	status, decision := Band(total)

	return Result{
		Score:    total,
		Status:   status,
		Decision: decision,
		Breakdown: Breakdown{
			Skills:         round2(s * weightSkills),
			Experience:     round2(e * weightExperience),
			Education:      round2(d * weightEducation),
			Certifications: round2(c * weightCertifications),
		},
		JobSkills:       jobSkills,
		CandidateSkills: candidateSkills,
	}
}

// Band maps a score to its status and fixed decision text. Lower bounds are inclusive.
func Band(score float64) (Status, string) {
	switch {
	case score < rejectBelow:
		return StatusRejected, "Auto-rejected (score below 40%)"
	case score < qualifyFrom:
		return StatusPendingReview, "Requires manual review (score between 40% and 59%)"
	default:
		return StatusQualified, "Auto-shortlisted (score 60%+)"
	}
}

func skillScore(jobSkills, candidateSkills []string) float64 {
	if len(jobSkills) == 0 || len(candidateSkills) == 0 {
		return 0
	}
	wanted := make(map[string]struct{}, len(jobSkills))
	for _, s := range jobSkills {
		wanted[s] = struct{}{}
	}
	matched := 0
	for _, s := range candidateSkills {
		if _, ok := wanted[s]; ok {
			matched++
		}
	}
	return math.Min(1, float64(matched)/float64(len(jobSkills)))
}

func requiredYears(job Job) *int {
	if job.MinYears != nil && *job.MinYears > 0 {
		return job.MinYears
	}
	if y := skills.FirstYears(job.Description); y != nil && *y > 0 {
		return y
	}
	return nil
}

func requiredEducation(job Job) resume.EducationLevel {
	if job.Education.Valid() {
		return job.Education
	}
	return resume.RequiredEducation(job.Description)
}

// experienceScore gives no credit for unknown or zero experience.
func experienceScore(years *int, required *int) float64 {
	if years == nil || *years <= 0 {
		return 0
	}
	if required == nil {
		return math.Min(1, float64(*years)/noReqYearCap)
	}
	ratio := float64(*years) / float64(*required)
	switch {
	case ratio >= 1:
		return 1
	case ratio >= 0.75:
		return 0.85
	case ratio >= 0.5:
		return 0.6
	default:
		return 0.2
	}
}

func educationScore(candidate, required resume.EducationLevel) float64 {
	if !candidate.Valid() {
		return 0
	}
	if !required.Valid() {
		return float64(candidate.Ordinal()) / float64(resume.MaxOrdinal)
	}
	if candidate.Ordinal() >= required.Ordinal() {
		return 1
	}
	gap := required.Ordinal() - candidate.Ordinal()
	return math.Max(0, 1-float64(gap)*eduPenalty)
}

func certificationScore(n int) float64 {
	switch {
	case n <= 0:
		return 0
	case n == 1:
		return 0.6
	case n == 2:
		return 0.8
	default:
		return 1
	}
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
