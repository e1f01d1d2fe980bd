package patterns

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// buildInsights renders the short natural-language summary published after
// every mining pass: high-focus and distracting applications, peak hours,
// and the count of improving patterns.
func buildInsights(active []BehavioralPattern) []string {
	var highFocusApps, distractionApps []string
	var peakHours []int
	improving := 0

	for _, p := range active {
		switch p.Type {
		case PatternHighFocusApp:
			highFocusApps = append(highFocusApps, titleCaser.String(p.ApplicationContext))
		case PatternDistractedApp:
			distractionApps = append(distractionApps, titleCaser.String(p.ApplicationContext))
		case PatternHighFocusHour:
			if p.TimeOfDay != nil {
				peakHours = append(peakHours, *p.TimeOfDay)
			}
		}
		if p.Trend == TrendImproving {
			improving++
		}
	}

	sort.Strings(highFocusApps)
	sort.Strings(distractionApps)
	sort.Ints(peakHours)

	var insights []string
	if len(highFocusApps) > 0 {
		insights = append(insights, fmt.Sprintf("You focus best in %s.", joinNames(highFocusApps)))
	}
	if len(distractionApps) > 0 {
		insights = append(insights, fmt.Sprintf("Attention drops while using %s.", joinNames(distractionApps)))
	}
	if len(peakHours) > 0 {
		insights = append(insights, fmt.Sprintf("Peak focus hours: %s.", joinHours(peakHours)))
	}
	if improving > 0 {
		insights = append(insights, fmt.Sprintf("%d of your attention patterns are improving.", improving))
	}
	return insights
}

func joinNames(names []string) string {
	switch len(names) {
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
	}
}

func joinHours(hours []int) string {
	parts := make([]string, len(hours))
	for i, h := range hours {
		parts[i] = fmt.Sprintf("%02d:00", h)
	}
	return strings.Join(parts, ", ")
}
