package search

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
)

// FieldType represents a field:value qualifier understood by the search bar
type FieldType string

const (
	FieldEdited   FieldType = "edited"
	FieldModified FieldType = "modified" // alias of edited
	FieldKeyword  FieldType = "keyword"
)

const dateLayout = "2006-01-02"

// Parser handles parsing of search bar input
type Parser struct {
	// Regular expressions for parsing
	fieldPattern  *regexp.Regexp
	quotedPattern *regexp.Regexp
	agePattern    *regexp.Regexp
	rangePattern  *regexp.Regexp
}

// NewParser creates a new search bar parser
func NewParser() *Parser {
	return &Parser{
		fieldPattern:  regexp.MustCompile(`^(\w+):(.+)$`),
		quotedPattern: regexp.MustCompile(`^"([^"]*)"$`),
		agePattern:    regexp.MustCompile(`^([<>])(\d+)([dwmy])$`),
		rangePattern:  regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})?\.\.(\d{4}-\d{2}-\d{2})?$`),
	}
}

// ParseCriteria parses input with a fresh Parser.
func ParseCriteria(contentType, input string, now time.Time) (models.Criteria, error) {
	return NewParser().Parse(contentType, input, now)
}

// Parse turns search bar input into criteria for contentType.
// Free words and quoted phrases form the keyword; edited: restricts the last edit date.
func (p *Parser) Parse(contentType, input string, now time.Time) (models.Criteria, error) {
	criteria := models.Criteria{ContentType: contentType}
	var words []string

	for _, token := range p.tokenize(input) {
		if p.quotedPattern.MatchString(token) {
			words = append(words, token)
			continue
		}

		matches := p.fieldPattern.FindStringSubmatch(token)
		if len(matches) != 3 {
			words = append(words, token)
			continue
		}

		field := FieldType(strings.ToLower(matches[1]))
		value := matches[2]
		switch field {
		case FieldEdited, FieldModified:
			if criteria.DateFilter != nil {
				return models.Criteria{}, fmt.Errorf("%s given more than once", field)
			}
			dr, err := p.parseEdited(p.unquote(value), now)
			if err != nil {
				return models.Criteria{}, err
			}
			criteria.DateFilter = dr
		case FieldKeyword:
			words = append(words, value)
		default:
			return models.Criteria{}, fmt.Errorf("unknown field: %s", field)
		}
	}

	criteria.Keyword = strings.Join(words, " ")
	return criteria, nil
}

// parseEdited parses values like ">7d", "<30d", "week" or "2024-01-01..2024-02-01"
func (p *Parser) parseEdited(value string, now time.Time) (*models.DateRange, error) {
	if dr, ok := Preset(value, now); ok {
		return &dr, nil
	}

	if matches := p.agePattern.FindStringSubmatch(value); len(matches) == 4 {
		n, err := strconv.Atoi(matches[2])
		if err != nil {
			return nil, fmt.Errorf("invalid edited value %s: %w", value, err)
		}
		boundary := subtract(now, n, matches[3])
		dr := &models.DateRange{ID: value}
		if matches[1] == ">" {
			// edited within the span
			dr.Min = boundary
		} else {
			dr.Max = boundary
		}
		return dr, nil
	}

	if matches := p.rangePattern.FindStringSubmatch(value); len(matches) == 3 {
		if matches[1] == "" && matches[2] == "" {
			return nil, fmt.Errorf("invalid edited range %s: both ends are empty", value)
		}
		dr := &models.DateRange{ID: value}
		if matches[1] != "" {
			start, err := time.ParseInLocation(dateLayout, matches[1], now.Location())
			if err != nil {
				return nil, fmt.Errorf("invalid edited range %s: %w", value, err)
			}
			dr.Min = start
		}
		if matches[2] != "" {
			end, err := time.ParseInLocation(dateLayout, matches[2], now.Location())
			if err != nil {
				return nil, fmt.Errorf("invalid edited range %s: %w", value, err)
			}
			// the end date is inclusive
			dr.Max = end.AddDate(0, 0, 1).Add(-time.Second)
		}
		if !dr.Min.IsZero() && !dr.Max.IsZero() && dr.Max.Before(dr.Min) {
			return nil, fmt.Errorf("invalid edited range %s: end is before start", value)
		}
		return dr, nil
	}

	return nil, fmt.Errorf("invalid edited value format: %s (expected format: >7d, <30d, week, 2024-01-01..2024-02-01)", value)
}

func subtract(now time.Time, n int, unit string) time.Time {
	switch unit {
	case "w":
		return now.AddDate(0, 0, -7*n)
	case "m":
		return now.AddDate(0, -n, 0)
	case "y":
		return now.AddDate(-n, 0, 0)
	default:
		return now.AddDate(0, 0, -n)
	}
}

// tokenize splits the input on spaces outside quotes
func (p *Parser) tokenize(input string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false

	for _, r := range input {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			current.WriteRune(r)
		case (r == ' ' || r == '\t') && !inQuotes:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// unquote removes quotes from a string if present
func (p *Parser) unquote(s string) string {
	if matches := p.quotedPattern.FindStringSubmatch(s); len(matches) == 2 {
		return matches[1]
	}
	return s
}
