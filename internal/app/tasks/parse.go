package tasks

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PabloGalante/farum-wellness/internal/app/validation"
	"github.com/PabloGalante/farum-wellness/internal/domain"
)

// Parser turns a model answer into candidate titles. ok is false when the
// answer is not in the parser's format.
type Parser struct {
	Name  string
	Parse func(text string) (titles []string, ok bool)
}

// Parsers is the fallback order applied to every answer.
var Parsers = []Parser{
	{Name: "bracketed", Parse: ParseBracketed},
	{Name: "whole", Parse: ParseWhole},
	{Name: "lines", Parse: ParseLines},
}

var (
	bracketed    = regexp.MustCompile(`(?s)\[.*\]`)
	bulletPrefix = regexp.MustCompile(`^[-*•]\s*`)
)

// ParseBracketed decodes the span from the first '[' to the last ']' as a
// JSON array of strings.
func ParseBracketed(text string) ([]string, bool) {
	span := bracketed.FindString(text)
	if span == "" {
		return nil, false
	}
	return decodeArray(span)
}

// ParseWhole decodes the entire answer as a JSON array of strings.
func ParseWhole(text string) ([]string, bool) {
	return decodeArray(strings.TrimSpace(text))
}

// ParseLines treats every non-blank line as a title, minus a leading bullet.
// The cap is applied after cleaning, in ExtractTitles.
func ParseLines(text string) ([]string, bool) {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		line = strings.TrimSpace(bulletPrefix.ReplaceAllString(strings.TrimSpace(line), ""))
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out, len(out) > 0
}

func decodeArray(s string) ([]string, bool) {
	var titles []string
	if err := json.Unmarshal([]byte(s), &titles); err != nil || len(titles) == 0 {
		return nil, false
	}
	return titles, true
}

// ExtractTitles runs the parser chain and cleans the winner's output: tags
// stripped, empty or over-long titles dropped, at most MaxTasksPerDay kept.
// parser names the parser that succeeded, or is empty.
func ExtractTitles(text string) (titles []string, parser string) {
	for _, p := range Parsers {
		raw, ok := p.Parse(text)
		if !ok {
			continue
		}
		return clean(raw), p.Name
	}
	return nil, ""
}

func clean(raw []string) []string {
	out := make([]string, 0, domain.MaxTasksPerDay)
	for _, t := range raw {
		t = validation.StripTags(t)
		if t == "" || utf8.RuneCountInString(t) > domain.TaskTitleMaxLen {
			continue
		}
		out = append(out, t)
		if len(out) == domain.MaxTasksPerDay {
			break
		}
	}
	return out
}
