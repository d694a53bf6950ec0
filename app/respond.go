package app

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteJSONError(w http.ResponseWriter, message string, statusCode int) {
	WriteJSON(w, statusCode, map[string]string{"message": message})
}

// Redirect answers 303 so a reload after a POST does not resubmit.
func Redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// RedirectWith appends query values to path.
func RedirectWith(w http.ResponseWriter, r *http.Request, path string, q url.Values) {
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	Redirect(w, r, path)
}

// RedirectBack returns to the referring page, or to fallback.
func RedirectBack(w http.ResponseWriter, r *http.Request, fallback string) {
	if ref := r.Referer(); ref != "" {
		if u, err := url.Parse(ref); err == nil && (u.Host == "" || u.Host == r.Host) {
			Redirect(w, r, u.RequestURI())
			return
		}
	}
	Redirect(w, r, fallback)
}

// FormValue is the trimmed form value of the first key that is set.
func FormValue(r *http.Request, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r.FormValue(k)); v != "" {
			return v
		}
	}
	return ""
}

// FormFlag reads a checkbox.
func FormFlag(r *http.Request, key string) bool {
	switch strings.ToLower(strings.TrimSpace(r.FormValue(key))) {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}

// ParseNumber accepts a decimal comma. ok is false for empty or invalid
// input.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.Replace(s, ",", ".", 1))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FormNumber is ParseNumber on a form field; nil when empty or invalid.
func FormNumber(r *http.Request, key string) *float64 {
	f, ok := ParseNumber(r.FormValue(key))
	if !ok {
		return nil
	}
	return &f
}

// SplitList splits a comma separated field, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FormList merges repeated fields and comma separated values.
func FormList(r *http.Request, key string) []string {
	if r.Form == nil {
		r.ParseForm()
	}
	var out []string
	for _, v := range r.Form[key] {
		out = append(out, SplitList(v)...)
	}
	return out
}
