package review

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Recommended experience levels, in difficulty order.
var Levels = []string{"Junior", "Mid", "Senior", "Senior+"}

// difficultyLabels maps a difficulty score to the triage label applied to
// the issue.
var difficultyLabels = map[int]string{
	1: "good first issue",
	2: "beginner-friendly",
	3: "intermediate",
	4: "advanced",
	5: "expert",
}

// Review is the structured result the model must produce for an issue.
type Review struct {
	Summary          string   `json:"summary"`
	DifficultyScore  int      `json:"difficulty_score"`
	RecommendedLevel string   `json:"recommended_level"`
	ConceptsRequired []string `json:"concepts_required"`
	MentoringAdvice  string   `json:"mentoring_advice"`
	ChunksUsed       int      `json:"chunks_used"`
	FilesAnalyzed    []string `json:"files_analyzed"`
}

// Parse decodes the model's final message into a Review. Models often wrap
// JSON in a markdown code fence; that wrapper is stripped first.
func Parse(raw string) (*Review, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if i := strings.LastIndex(raw, "```"); i >= 0 {
			raw = raw[:i]
		}
		raw = strings.TrimSpace(raw)
	}
	var r Review
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("decode review: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks the schema constraints the prompt promises.
func (r *Review) Validate() error {
	if strings.TrimSpace(r.Summary) == "" {
		return fmt.Errorf("review summary is empty")
	}
	if r.DifficultyScore < 1 || r.DifficultyScore > 5 {
		return fmt.Errorf("difficulty score %d out of range 1..5", r.DifficultyScore)
	}
	for _, l := range Levels {
		if r.RecommendedLevel == l {
			return nil
		}
	}
	return fmt.Errorf("unknown recommended level %q", r.RecommendedLevel)
}

// DifficultyLabel maps the score to a triage label; out-of-range scores get
// a fallback.
func DifficultyLabel(score int) string {
	if label, ok := difficultyLabels[score]; ok {
		return label
	}
	return "needs-triage"
}

// Comment renders the review as a GitHub-flavored markdown comment.
func (r *Review) Comment() string {
	bar := strings.Repeat("█", r.DifficultyScore) + strings.Repeat("░", 5-r.DifficultyScore)
	var concepts strings.Builder
	for _, c := range r.ConceptsRequired {
		fmt.Fprintf(&concepts, "- `%s`\n", c)
	}
	timestamp := time.Now().UTC().Format("2006-01-02 15:04 UTC")

	return fmt.Sprintf(`## 🤖 AI Issue Review

%s

### Difficulty Assessment

| Metric | Value |
|---|---|
| Score | %s %d/5 |
| Recommended Level | **%s** |

### Required Concepts

%s
### Mentoring Advice

%s

---
<sub>Generated by Issue Reviewer · %s</sub>
`, r.Summary, bar, r.DifficultyScore, r.RecommendedLevel, concepts.String(), r.MentoringAdvice, timestamp)
}
