package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	yearPattern       = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	introducedPattern = regexp.MustCompile(`\b(introduced|started|began|launched)\b.*?(\d{4})`)
	activeSince       = regexp.MustCompile(`\b(since|active.*?since|been.*?since)\b.*?(\d{4})`)
	startVerbs        = regexp.MustCompile(`(?i)\b(started|began|introduced|launched)\b`)
	ongoingVerbs      = regexp.MustCompile(`(?i)\b(since|active|running|operating)\b`)
	yesNoPair         = regexp.MustCompile(`\b(yes|no)\b.*\b(no|yes)\b`)
	numberPattern     = regexp.MustCompile(`\b\d+\b`)
)

// maxYearGap is the widest spread of years tolerated alongside start/ongoing language
const maxYearGap = 10

// contradictionRule inspects a response and returns a detail when it fires
type contradictionRule func(response, lower string) (string, bool)

// contradictionRules run in order; the first hit wins
var contradictionRules = []contradictionRule{
	timelineConflict,
	statusConflict,
	yesNoConflict,
	numericConflict,
}

// detectInternalContradiction applies the ordered rules to a response
func detectInternalContradiction(response string) (bool, string) {
	lower := strings.ToLower(response)
	for _, rule := range contradictionRules {
		if detail, ok := rule(response, lower); ok {
			return true, detail
		}
	}
	return false, ""
}

func timelineConflict(response, lower string) (string, bool) {
	years := yearPattern.FindAllString(response, -1)
	if len(years) < 2 {
		return "", false
	}

	introduced := introducedPattern.FindStringSubmatch(lower)
	active := activeSince.FindStringSubmatch(lower)
	if introduced != nil && active != nil {
		introducedYear, _ := strconv.Atoi(introduced[2])
		activeYear, _ := strconv.Atoi(active[2])
		if introducedYear > activeYear {
			return fmt.Sprintf("Timeline conflict: introduced in %d but active since %d", introducedYear, activeYear), true
		}
	}

	minYear, maxYear := 9999, 0
	for _, y := range years {
		v, _ := strconv.Atoi(y)
		minYear = min(minYear, v)
		maxYear = max(maxYear, v)
	}
	if maxYear-minYear > maxYearGap && startVerbs.MatchString(response) && ongoingVerbs.MatchString(response) {
		return "Timeline inconsistency: large time gap detected", true
	}
	return "", false
}

func statusConflict(_, lower string) (string, bool) {
	if strings.Contains(lower, "currently open") && strings.Contains(lower, "has closed") {
		return "Contradictory status statements", true
	}
	return "", false
}

func yesNoConflict(_, lower string) (string, bool) {
	if yesNoPair.MatchString(lower) {
		return "Contradictory yes/no statements", true
	}
	return "", false
}

// numericConflict flags a sentence whose numbers differ by more than an order of magnitude.
// Zeros are ignored since no ratio can be formed with them.
func numericConflict(response, _ string) (string, bool) {
	if len(numberPattern.FindAllString(response, -1)) < 2 {
		return "", false
	}

	for _, sentence := range strings.Split(response, ".") {
		var nums []float64
		for _, n := range numberPattern.FindAllString(sentence, -1) {
			v, err := strconv.ParseFloat(n, 64)
			if err != nil || v == 0 {
				continue
			}
			nums = append(nums, v)
		}
		if len(nums) < 2 {
			continue
		}
		lo, hi := nums[0], nums[0]
		for _, v := range nums[1:] {
			lo = min(lo, v)
			hi = max(hi, v)
		}
		if hi/lo > 10 {
			return "Conflicting numerical values", true
		}
	}
	return "", false
}
