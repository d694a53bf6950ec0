package labels

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed label.html
var labelHTML string

var labelTmpl = template.Must(template.New("label").Funcs(template.FuncMap{
	"kg": func(v float64) string { return fmt.Sprintf("%.0f", v) },
}).Parse(labelHTML))

// DefaultLogo is printed when the operator did not pick a logo.
const DefaultLogo = "rs-logo.png"

// Label is the data printed on one big bag.
type Label struct {
	Lang           string
	Texts          Texts
	LocationCode   string
	QuantityKg     float64
	OriginSilo     string
	LotNumber      string
	ProductionDate string
	OperatorCode   string
	LogoFile       string
}

// New fills the language texts and the logo fallback.
func New(lang string) Label {
	code, t := Lookup(lang)
	return Label{Lang: code, Texts: t, LogoFile: DefaultLogo}
}

// WriteHTML renders the label as a standalone HTML page.
func (l Label) WriteHTML(w io.Writer) error {
	if l.LogoFile == "" {
		l.LogoFile = DefaultLogo
	}
	if err := labelTmpl.Execute(w, l); err != nil {
		return fmt.Errorf("failed to render label: %w", err)
	}
	return nil
}

// HTML is WriteHTML into a byte slice.
func (l Label) HTML() ([]byte, error) {
	var buf bytes.Buffer
	if err := l.WriteHTML(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
