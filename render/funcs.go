package render

import (
	"html/template"
	"strconv"
	"strings"
	"time"

	"fewr/model"
	"fewr/timefmt"
)

// Funcs are the template helpers. Times are shown in loc.
func Funcs(loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"num":   Num,
		"pct":   func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) },
		"stamp": func(t time.Time) string { return stamp(t, loc) },
		"stampp": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return stamp(*t, loc)
		},
		"day": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return timefmt.Day(t.In(loc))
		},
		"str": func(p *string) string {
			if p == nil {
				return ""
			}
			return *p
		},
		"join": func(list []string, sep string) string { return strings.Join(list, sep) },
		"has":  func(set map[string]bool, key string) bool { return set[key] },
		"isImage": func(mime string) bool {
			return strings.HasPrefix(mime, "image/")
		},
		"labo": func(r model.RawReceipt, field string) string {
			v, _ := r.LaboValue(field)
			return v
		},
		"eqs": func(a string, list ...string) bool {
			for _, b := range list {
				if a == b {
					return true
				}
			}
			return false
		},
	}
}

func stamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return timefmt.Stamp(t.In(loc))
}

// Num prints a quantity with at most two decimals. Nil pointers print as
// an empty cell.
func Num(v any) string {
	var f float64
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		f = x
	case *float64:
		if x == nil {
			return ""
		}
		f = *x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return ""
	}
	return strconv.FormatFloat(round2(f), 'f', -1, 64)
}

func round2(f float64) float64 {
	s := strconv.FormatFloat(f, 'f', 2, 64)
	r, _ := strconv.ParseFloat(s, 64)
	return r
}
