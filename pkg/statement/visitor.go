package statement

import (
	"regexp"
	"slices"
	"strings"
)

type (
	// Visitor rewrites a generated SQL line before it is executed or rendered.
	Visitor interface {
		Name() string
		AppliesTo(dialect string) bool
		Modify(sql string) string
	}

	// Append adds Value to the end of every line.
	Append struct {
		Value    string
		Dialects []string
	}

	// Prepend adds Value to the start of every line.
	Prepend struct {
		Value    string
		Dialects []string
	}

	// Replace substitutes every occurrence of Old with New.
	Replace struct {
		Old      string
		New      string
		Dialects []string
	}

	// RegexpReplace substitutes every match of Pattern with Replacement.
	// Replacement may reference capture groups ($1, ${name}).
	RegexpReplace struct {
		Pattern     *regexp.Regexp
		Replacement string
		Dialects    []string
	}
)

func (v *Append) Name() string                  { return "append" }
func (v *Append) AppliesTo(dialect string) bool { return appliesTo(v.Dialects, dialect) }
func (v *Append) Modify(sql string) string      { return sql + v.Value }

func (v *Prepend) Name() string                  { return "prepend" }
func (v *Prepend) AppliesTo(dialect string) bool { return appliesTo(v.Dialects, dialect) }
func (v *Prepend) Modify(sql string) string      { return v.Value + sql }

func (v *Replace) Name() string                  { return "replace" }
func (v *Replace) AppliesTo(dialect string) bool { return appliesTo(v.Dialects, dialect) }
func (v *Replace) Modify(sql string) string      { return strings.ReplaceAll(sql, v.Old, v.New) }

func (v *RegexpReplace) Name() string                  { return "regExpReplace" }
func (v *RegexpReplace) AppliesTo(dialect string) bool { return appliesTo(v.Dialects, dialect) }
func (v *RegexpReplace) Modify(sql string) string {
	if v.Pattern == nil {
		return sql
	}
	return v.Pattern.ReplaceAllString(sql, v.Replacement)
}

// ApplyVisitors runs every visitor that applies to dialect over each line, in
// order. Lines are never dropped, only rewritten.
func ApplyVisitors(lines []string, dialect string, visitors ...Visitor) []string {
	if len(visitors) == 0 {
		return lines
	}

	out := make([]string, len(lines))
	for i, line := range lines {
		for _, v := range visitors {
			if v != nil && v.AppliesTo(dialect) {
				line = v.Modify(line)
			}
		}
		out[i] = line
	}

	return out
}

// appliesTo treats an empty dialect list as "all dialects".
func appliesTo(dialects []string, dialect string) bool {
	if len(dialects) == 0 {
		return true
	}

	return slices.ContainsFunc(dialects, func(d string) bool {
		return strings.EqualFold(d, dialect)
	})
}
