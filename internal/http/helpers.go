package http

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"cuentas/internal/core"
)

// sanitizeInput trims and drops control characters except tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// isHTMX reports whether the request came from htmx rather than a full navigation.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// redirect sends htmx clients an HX-Redirect and browsers a 303.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	if isHTMX(r) {
		NewHTMXResponse().Redirect(url).Write(w)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// formValue renders a money amount for an input field, empty for zero.
func formValue(m core.Money) string {
	if m == 0 {
		return ""
	}
	return m.String()
}

var templateFuncs = template.FuncMap{
	"money":     func(m core.Money) string { return m.Display() },
	"formMoney": formValue,
	"months":    core.Months,
	"monthNum":  func(m core.Month) int { return int(m) + 1 },
	"utilities": func() []core.Utility { return core.Utilities },
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
	"kwh": func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
	"statusClass": func(s core.Status) string {
		if s == core.Paid {
			return "badge badge--paid"
		}
		return "badge badge--pending"
	},
	"dict": func(kv ...any) (map[string]any, error) {
		if len(kv)%2 != 0 {
			return nil, errors.New("dict: odd number of arguments")
		}
		m := make(map[string]any, len(kv)/2)
		for i := 0; i < len(kv); i += 2 {
			k, ok := kv[i].(string)
			if !ok {
				return nil, errors.New("dict: keys must be strings")
			}
			m[k] = kv[i+1]
		}
		return m, nil
	},
	"roles":    func() []core.Role { return []core.Role{core.RoleEditor, core.RoleViewer} },
	"statuses": func() []core.Status { return []core.Status{core.Pending, core.Paid} },
}
