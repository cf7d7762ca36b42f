// Package templater pre-processes template text, expanding the small set
// of dynamic expressions templates are allowed to embed. Expansion failure
// is recoverable: callers fall back to the unprocessed text and surface
// the failure as a warning.
package templater

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/apperr"
)

var exprRe = regexp.MustCompile(`<%\s*(.*?)\s*%>`)

// momentToGo maps moment.js-style format fragments to Go reference-time
// fragments, longest first so YYYY wins over YY.
var momentToGo = []struct{ from, to string }{
	{"YYYY", "2006"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"HH", "15"},
	{"mm", "04"},
	{"ss", "05"},
}

// DefaultDateFormat is used when a date expression gives no format.
const DefaultDateFormat = "YYYY-MM-DD"

// TimestampExpr is the expression substituted for fields that request a
// templater timestamp instead of a literal default.
const TimestampExpr = `<% tp.date.now("YYYY-MM-DD HH:mm") %>`

// Expander evaluates templater expressions against a fixed clock and
// document title.
type Expander struct {
	Now   func() time.Time
	Title string
}

// NewExpander returns an expander using the wall clock.
func NewExpander(title string) *Expander {
	return &Expander{Now: time.Now, Title: title}
}

// Expand replaces every <% ... %> expression in content. On the first
// unsupported or malformed expression it returns the original content
// unchanged together with an *apperr.ExpansionError.
func (e *Expander) Expand(content string) (string, error) {
	var expandErr error
	out := exprRe.ReplaceAllStringFunc(content, func(m string) string {
		if expandErr != nil {
			return m
		}
		expr := strings.TrimSpace(exprRe.FindStringSubmatch(m)[1])
		val, err := e.eval(expr)
		if err != nil {
			expandErr = &apperr.ExpansionError{Expr: expr, Err: err}
			return m
		}
		return val
	})
	if expandErr != nil {
		return content, expandErr
	}
	return out, nil
}

func (e *Expander) eval(expr string) (string, error) {
	switch {
	case expr == "tp.file.title":
		return e.Title, nil

	case strings.HasPrefix(expr, "tp.date.now"):
		format, err := parseDateArg(expr)
		if err != nil {
			return "", err
		}
		now := time.Now()
		if e.Now != nil {
			now = e.Now()
		}
		return now.Format(toGoLayout(format)), nil

	default:
		return "", fmt.Errorf("unsupported expression")
	}
}

// parseDateArg extracts the optional quoted format argument from a
// tp.date.now(...) call.
func parseDateArg(expr string) (string, error) {
	rest := strings.TrimPrefix(expr, "tp.date.now")
	rest = strings.TrimSpace(rest)
	if rest == "" || rest == "()" {
		return DefaultDateFormat, nil
	}
	if !strings.HasPrefix(rest, "(") || !strings.HasSuffix(rest, ")") {
		return "", fmt.Errorf("malformed call")
	}
	arg := strings.TrimSpace(rest[1 : len(rest)-1])
	if arg == "" {
		return DefaultDateFormat, nil
	}
	if len(arg) < 2 || (arg[0] != '"' && arg[0] != '\'') || arg[len(arg)-1] != arg[0] {
		return "", fmt.Errorf("format argument must be a quoted string")
	}
	if format := arg[1 : len(arg)-1]; format != "" {
		return format, nil
	}
	return DefaultDateFormat, nil
}

func toGoLayout(format string) string {
	for _, m := range momentToGo {
		format = strings.ReplaceAll(format, m.from, m.to)
	}
	return format
}
