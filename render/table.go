package render

import (
	"html"
	"strings"
)

// TableHTML builds a bare HTML table document. Excel opens it as a sheet
// when it is served as application/vnd.ms-excel.
func TableHTML(headers []string, rows [][]string) string {
	var sb strings.Builder

	sb.WriteString(`<html><head><meta charset="utf-8"></head><body>`)
	sb.WriteString(`<table border="1"><thead><tr>`)
	for _, h := range headers {
		sb.WriteString(`<th>`)
		sb.WriteString(html.EscapeString(h))
		sb.WriteString(`</th>`)
	}
	sb.WriteString(`</tr></thead><tbody>`)

	if len(rows) == 0 {
		sb.WriteString(`<tr><td colspan="`)
		sb.WriteString(itoa(len(headers)))
		sb.WriteString(`">No data.</td></tr>`)
	}
	for _, row := range rows {
		sb.WriteString(`<tr>`)
		for _, cell := range row {
			sb.WriteString(`<td>`)
			sb.WriteString(html.EscapeString(cell))
			sb.WriteString(`</td>`)
		}
		sb.WriteString(`</tr>`)
	}
	sb.WriteString(`</tbody></table></body></html>`)

	return sb.String()
}

func itoa(n int) string {
	if n <= 0 {
		return "1"
	}
	return Num(n)
}
