package domain

import (
	"math"
	"sort"
)

// DefaultFrescosSectionID is the well-known subsection-bearing section.
const DefaultFrescosSectionID = 3

// DefaultAderenteCriteria are the Section 2 criteria scored on Aderente visits.
var DefaultAderenteCriteria = []int{22001, 22002, 22003, 22004, 22005, 22006}

// Policy carries the checklist conventions the aggregation depends on.
type Policy struct {
	FrescosSectionID int
	AderenteCriteria []int
}

// DefaultPolicy returns the production conventions.
func DefaultPolicy() Policy {
	return Policy{
		FrescosSectionID: DefaultFrescosSectionID,
		AderenteCriteria: append([]int{}, DefaultAderenteCriteria...),
	}
}

// ScoreIndex looks up ledger rows by criterion id.
type ScoreIndex map[int]AuditScore

// IndexScores builds a ScoreIndex. Later rows win on duplicate ids.
func IndexScores(scores []AuditScore) ScoreIndex {
	idx := make(ScoreIndex, len(scores))
	for _, score := range scores {
		idx[score.CriterionID] = score
	}
	return idx
}

// ScoreOf is the completion percentage of a set of items: the share of scored
// rating criteria whose value is 1. A 1 on a 1..5 criterion counts as well;
// checklists that mix both semantics in one section rely on that.
func ScoreOf(items []Item, scores ScoreIndex) float64 {
	total, ok := countItems(items, scores)
	if total == 0 {
		return 0
	}
	return 100 * float64(ok) / float64(total)
}

func countItems(items []Item, scores ScoreIndex) (total, ok int) {
	for _, item := range items {
		for _, criterion := range item.Criteria {
			if !criterion.IsRating() {
				continue
			}
			row, found := scores[criterion.ID]
			if !found {
				continue
			}
			value := row.Score.Value()
			if value == nil {
				continue
			}
			total++
			if *value == 1 {
				ok++
			}
		}
	}
	return total, ok
}

// RatingForPercentage buckets a percentage onto the 1..5 section scale.
func RatingForPercentage(percentage float64) int {
	switch {
	case percentage >= 80:
		return 5
	case percentage >= 60:
		return 4
	case percentage >= 40:
		return 3
	case percentage >= 20:
		return 2
	default:
		return 1
	}
}

// RatingOf is the 1..5 rating of a set of items.
func RatingOf(items []Item, scores ScoreIndex) int {
	return RatingForPercentage(ScoreOf(items, scores))
}

// TotalScore is the overall audit score, unrounded.
func TotalScore(checklist Checklist, scores ScoreIndex, source VisitSource, policy Policy) float64 {
	if source == VisitAderente {
		return AderenteScore(scores, policy.AderenteCriteria)
	}
	return SectionMean(checklist, scores)
}

// SectionMean averages ScoreOf over every section; each section weighs the
// same whatever its criterion count.
func SectionMean(checklist Checklist, scores ScoreIndex) float64 {
	if len(checklist.Sections) == 0 {
		return 0
	}
	var sum float64
	for _, section := range checklist.Sections {
		sum += ScoreOf(section.Items, scores)
	}
	return sum / float64(len(checklist.Sections))
}

// AderenteScore is the mean of the whitelisted 1..5 ratings as a percentage.
// Values of zero or below are not counted.
func AderenteScore(scores ScoreIndex, whitelist []int) float64 {
	var sum, count int
	for _, id := range whitelist {
		row, ok := scores[id]
		if !ok {
			continue
		}
		value := row.Score.Value()
		if value == nil || *value <= 0 {
			continue
		}
		sum += *value
		count++
	}
	if count == 0 {
		return 0
	}
	return 100 * float64(sum) / float64(5*count)
}

// RoundScore rounds a score for persistence as Audit.FinalScore.
func RoundScore(score float64) int {
	return int(math.Round(score))
}

// MissingKOPhotos lists, in ascending order, criteria scored KO without a photo.
func MissingKOPhotos(scores []AuditScore) []int {
	ids := make([]int, 0)
	for _, score := range scores {
		if score.MissingKOPhoto() {
			ids = append(ids, score.CriterionID)
		}
	}
	sort.Ints(ids)
	return ids
}

// GroupResult is the aggregated state of one rating group.
type GroupResult struct {
	Key        SectionKey
	Label      string
	Percentage float64
	Rating     int
	Scored     int
	Total      int
}

// SectionResult is the aggregated state of a section and, for the
// subsection-bearing section, of each subsection.
type SectionResult struct {
	SectionID   int
	Name        string
	Percentage  float64
	Rating      int
	Subsections []GroupResult
}

// Summary is the whole aggregation of one audit.
type Summary struct {
	Sections      []SectionResult
	Total         float64
	FinalScore    int
	MissingPhotos []int
}

// Summarize aggregates an audit's ledger against its checklist.
func Summarize(checklist Checklist, rows []AuditScore, source VisitSource, policy Policy) Summary {
	scores := IndexScores(rows)
	summary := Summary{
		Sections:      make([]SectionResult, 0, len(checklist.Sections)),
		MissingPhotos: MissingKOPhotos(rows),
	}
	for _, section := range checklist.Sections {
		pct := ScoreOf(section.Items, scores)
		result := SectionResult{
			SectionID:  section.ID,
			Name:       section.Name,
			Percentage: pct,
			Rating:     RatingForPercentage(pct),
		}
		if section.ID == policy.FrescosSectionID {
			for _, group := range GroupSection(section, policy) {
				scored, _ := countItems(group.Items, scores)
				gp := ScoreOf(group.Items, scores)
				result.Subsections = append(result.Subsections, GroupResult{
					Key:        group.Key,
					Label:      group.Label,
					Percentage: gp,
					Rating:     RatingForPercentage(gp),
					Scored:     scored,
					Total:      countRatingCriteria(group.Items),
				})
			}
		}
		summary.Sections = append(summary.Sections, result)
	}
	summary.Total = TotalScore(checklist, scores, source, policy)
	summary.FinalScore = RoundScore(summary.Total)
	return summary
}

func countRatingCriteria(items []Item) int {
	n := 0
	for _, item := range items {
		for _, criterion := range item.Criteria {
			if criterion.IsRating() {
				n++
			}
		}
	}
	return n
}

// GroupRating is the rating persisted with a section evaluation, nil while
// none of the group's rating criteria is scored.
func GroupRating(items []Item, scores ScoreIndex) *int {
	scored, _ := countItems(items, scores)
	if scored == 0 {
		return nil
	}
	rating := RatingOf(items, scores)
	return &rating
}
