package analysis

import (
	"fmt"
	"strings"

	"github.com/jonesrussell/north-cloud/burst-tracker/internal/models"
)

// Task is one planned analyzer invocation together with the tags its
// result will carry.
type Task struct {
	WorkName          string
	Query             string
	Message           string
	IsTrend           bool
	WithTrendWord     bool
	TrendWords        []string
	IsTrendIndividual bool
}

// Plan expands the given works into an ordered task list. Trend-only works
// get a single task. Regular works get one plain task when they have no
// trend words; when trend words exist that are not already part of the
// original query, the plan is original-query + combined-query + one
// isolated task per new trend word; when every trend word is already embedded,
// the combined task alone covers the work, still followed by the isolated
// tasks. The list length drives progress reporting, so it must be complete
// before execution starts.
func Plan(works []models.Work, trendWords []models.TrendWord, originalQueries map[string][]string) []Task {
	trendMap := groupTrendWords(trendWords)

	var tasks []Task
	for _, work := range works {
		if work.IsTrend {
			tasks = append(tasks, Task{
				WorkName:   work.Name,
				Query:      work.Query,
				Message:    fmt.Sprintf("analyzing: %s", work.Name),
				IsTrend:    true,
				TrendWords: []string{},
			})
			continue
		}

		trends := trendMap[work.Name]
		elements := originalElements(work, originalQueries)
		newTrends := subtract(trends, elements)

		switch {
		case len(trends) == 0:
			tasks = append(tasks, Task{
				WorkName:   work.Name,
				Query:      work.Query,
				Message:    fmt.Sprintf("analyzing: %s", work.Name),
				TrendWords: []string{},
			})
		case len(newTrends) > 0:
			tasks = append(tasks, Task{
				WorkName:   work.Name,
				Query:      models.BuildQuery(elements),
				Message:    fmt.Sprintf("analyzing: %s (original query)", work.Name),
				TrendWords: []string{},
			})
			tasks = append(tasks, Task{
				WorkName:      work.Name,
				Query:         work.Query,
				Message:       fmt.Sprintf("analyzing: %s (with trends)", work.Name),
				WithTrendWord: true,
				TrendWords:    newTrends,
			})
			tasks = append(tasks, individualTasks(work.Name, newTrends)...)
		default:
			// Every trend word is already folded into the base query, so a
			// single combined analysis covers the work.
			tasks = append(tasks, Task{
				WorkName:      work.Name,
				Query:         work.Query,
				Message:       fmt.Sprintf("analyzing: %s", work.Name),
				WithTrendWord: true,
				TrendWords:    trends,
			})
			tasks = append(tasks, individualTasks(work.Name, trends)...)
		}
	}
	return tasks
}

func individualTasks(workName string, trends []string) []Task {
	tasks := make([]Task, 0, len(trends))
	for _, word := range trends {
		tasks = append(tasks, Task{
			WorkName:          workName,
			Query:             models.BuildQuery([]string{word}),
			Message:           fmt.Sprintf("analyzing: %s (%s)", workName, word),
			WithTrendWord:     true,
			TrendWords:        []string{word},
			IsTrendIndividual: true,
		})
	}
	return tasks
}

// groupTrendWords maps work names to their trend words, dropping blanks.
func groupTrendWords(trendWords []models.TrendWord) map[string][]string {
	grouped := make(map[string][]string)
	for _, tw := range trendWords {
		word := strings.TrimSpace(tw.Word)
		if tw.WorkName == "" || word == "" {
			continue
		}
		grouped[tw.WorkName] = append(grouped[tw.WorkName], word)
	}
	return grouped
}

// originalElements resolves the query elements the work had before trend
// words were folded in, defaulting to the base query itself.
func originalElements(work models.Work, originalQueries map[string][]string) []string {
	if elements, ok := originalQueries[work.Name]; ok && len(elements) > 0 {
		return elements
	}
	if len(work.QueryElements) > 0 {
		return work.QueryElements
	}
	return []string{work.Query}
}

// subtract returns the members of words not present in existing, preserving
// order. Matching is by exact string equality.
func subtract(words, existing []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		found := false
		for _, e := range existing {
			if w == e {
				found = true
				break
			}
		}
		if !found {
			out = append(out, w)
		}
	}
	return out
}
