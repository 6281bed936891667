// Package steps parses free-text, numbered workflow descriptions into typed steps.
package steps

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/dukex/flowgen/pkg/models"
)

var (
	lineSplitter = regexp.MustCompile(`[\r\n]+`)
	stepMarker   = regexp.MustCompile(`^(?i:step\s*)?(\d+)\s*[.):]\s*(.*)$`)
	humanTag     = regexp.MustCompile(`(?i)\(human\)`)
	actorTag     = regexp.MustCompile(`(?i)\((?:human|ai)\)`)
)

// Parse converts a line-oriented description into steps sorted by index.
//
// Lines without a leading "[Step ]<n>[.):]" marker are ignored. The actor
// defaults to AI unless a "(Human)" tag is present; the leftmost actor tag
// is removed from the label. Step numbers are kept as written, so gaps and
// duplicates survive parsing.
func Parse(text string) []models.WorkflowStep {
	parsed := make([]models.WorkflowStep, 0)

	for _, line := range lineSplitter.Split(text, -1) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		step, ok := parseLine(line)
		if !ok {
			continue
		}

		parsed = append(parsed, step)
	}

	slices.SortStableFunc(parsed, func(a, b models.WorkflowStep) int {
		return a.Index - b.Index
	})

	return parsed
}

func parseLine(line string) (models.WorkflowStep, bool) {
	match := stepMarker.FindStringSubmatch(line)
	if match == nil {
		return models.WorkflowStep{}, false
	}

	number, err := strconv.Atoi(match[1])
	if err != nil || number < 1 {
		return models.WorkflowStep{}, false
	}

	rest := match[2]
	actor := models.ActorAI

	if humanTag.MatchString(rest) {
		actor = models.ActorHuman
	}

	rest = removeFirst(actorTag, rest)

	label := strings.TrimSpace(rest)
	if label == "" {
		return models.WorkflowStep{}, false
	}

	index := number - 1

	return models.WorkflowStep{
		ID:    models.StepID(index),
		Label: label,
		Actor: actor,
		Index: index,
	}, true
}

func removeFirst(pattern *regexp.Regexp, s string) string {
	loc := pattern.FindStringIndex(s)
	if loc == nil {
		return s
	}

	return s[:loc[0]] + s[loc[1]:]
}

// Duplicates returns the indices claimed by more than one step, in ascending order.
func Duplicates(parsed []models.WorkflowStep) []int {
	seen := make(map[int]int, len(parsed))
	for _, step := range parsed {
		seen[step.Index]++
	}

	duplicated := make([]int, 0)

	for index, count := range seen {
		if count > 1 {
			duplicated = append(duplicated, index)
		}
	}

	slices.Sort(duplicated)

	return duplicated
}
