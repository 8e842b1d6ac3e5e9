// Package schedule turns user supplied schedule expressions into five-field
// cron schedules.
//
// Two forms are accepted:
//   - a five-field cron expression ("*/5 * * * *", "0 17 * * 1-5"), returned unchanged
//   - a phrase known to the configured Translator ("every day at 5pm")
package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/code19m/errx"
	robfigcron "github.com/robfig/cron/v3"
)

// CodeInvalidExpression is returned when an expression is neither cron syntax
// nor a known phrase.
const CodeInvalidExpression = "INVALID_EXPRESSION"

var reFiveField = regexp.MustCompile(`^([0-9*/,-]+\s+){4}[0-9*/,-]+$`)

var fieldParser = robfigcron.NewParser(
	robfigcron.Minute | robfigcron.Hour | robfigcron.Dom | robfigcron.Month | robfigcron.Dow,
)

// Parser normalizes schedule expressions.
type Parser struct {
	phrases Translator
}

// NewParser returns a Parser that falls back to t for non-cron input.
// A nil translator only accepts cron syntax.
func NewParser(t Translator) *Parser {
	return &Parser{phrases: t}
}

// DefaultParser returns a Parser backed by the built-in phrase table.
func DefaultParser() *Parser {
	return NewParser(BuiltinPhrases())
}

// Normalize returns expression as a five-field cron schedule.
func (p *Parser) Normalize(expression string) (string, error) {
	if IsCron(expression) {
		if _, err := fieldParser.Parse(sundayAsZero(expression)); err != nil {
			return "", errx.New(
				fmt.Sprintf("invalid cron expression %q: %v", expression, err),
				errx.WithCode(CodeInvalidExpression),
				errx.WithType(errx.T_Validation),
			)
		}
		return expression, nil
	}

	if p.phrases != nil {
		if sched, ok := p.phrases.Translate(expression); ok {
			return sched, nil
		}
	}

	return "", errx.New(
		fmt.Sprintf("unsupported expression %q: requires a natural-language translator", expression),
		errx.WithCode(CodeInvalidExpression),
		errx.WithType(errx.T_Validation),
	)
}

// IsCron reports whether s looks like five cron fields.
func IsCron(s string) bool {
	return reFiveField.MatchString(s)
}

// Next returns the first activation of sched strictly after from.
func Next(sched string, from time.Time) (time.Time, error) {
	parsed, err := fieldParser.Parse(sundayAsZero(sched))
	if err != nil {
		return time.Time{}, err
	}
	return parsed.Next(from), nil
}

// sundayAsZero rewrites a day-of-week of 7 (Sunday, as accepted by cron(8))
// to 0, which is the only Sunday robfig knows. "a-7" becomes "a-6,0" so the
// covered days stay the same.
func sundayAsZero(expr string) string {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return expr
	}

	parts := strings.Split(fields[4], ",")
	for i, part := range parts {
		rng, step, hasStep := strings.Cut(part, "/")
		lo, hi, isRange := strings.Cut(rng, "-")
		switch {
		case !isRange && lo == "7":
			parts[i] = "0"
			if hasStep {
				parts[i] += "/" + step
			}
		case isRange && hi == "7" && lo == "7":
			parts[i] = "0"
		case isRange && hi == "7":
			parts[i] = lo + "-6"
			n := 1
			if hasStep {
				parts[i] += "/" + step
				n, _ = strconv.Atoi(step)
			}
			if start, err := strconv.Atoi(lo); err == nil && n > 0 && (7-start)%n == 0 {
				parts[i] += ",0"
			}
		}
	}
	fields[4] = strings.Join(parts, ",")
	return strings.Join(fields, " ")
}
