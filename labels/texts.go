// Package labels renders the big bag label printed at discharge time, in
// the customer's language, as HTML or as PDF through headless Chrome.
package labels

import (
	"strings"

	"golang.org/x/text/language"
)

// Texts are the fixed strings printed on a label.
type Texts struct {
	ProductTitle   string
	Batch          string
	ProductionDate string
	Feed1          string
	Feed2          string
	Moisture       string
	Starch         string
	Fibre          string
}

var supported = []language.Tag{
	language.Dutch, // first entry is the fallback
	language.English,
	language.Spanish,
	language.French,
	language.Danish,
	language.Czech,
	language.Italian,
}

var matcher = language.NewMatcher(supported)

var texts = map[string]Texts{
	"nl": {
		ProductTitle:   "GEDROOGD AARDAPPEL POEDER",
		Batch:          "BATCH:",
		ProductionDate: "PRODUCTIE DATUM:",
		Feed1:          "voedermiddel",
		Feed2:          "Product van de aardappelverwerkingsindustrie",
		Moisture:       "Vocht",
		Starch:         "Zetmeel",
		Fibre:          "Ruwe celstof",
	},
	"en": {
		ProductTitle:   "DRIED POTATO POWDER",
		Batch:          "BATCH:",
		ProductionDate: "PRODUCTION DATE:",
		Feed1:          "feed material",
		Feed2:          "Product of the potato processing industry",
		Moisture:       "Moisture",
		Starch:         "Starch",
		Fibre:          "Crude fibre",
	},
	"es": {
		ProductTitle:   "POLVO DE PATATA DESHIDRATADO",
		Batch:          "LOTE:",
		ProductionDate: "FECHA DE PRODUCCIÓN:",
		Feed1:          "materia prima para piensos",
		Feed2:          "Producto de la industria de transformación de la patata",
		Moisture:       "Humedad",
		Starch:         "Almidón",
		Fibre:          "Fibra bruta",
	},
	"fr": {
		ProductTitle:   "POUDRE DE POMME DE TERRE SÉCHÉE",
		Batch:          "LOT :",
		ProductionDate: "DATE DE PRODUCTION :",
		Feed1:          "matière première pour aliments",
		Feed2:          "Produit de l'industrie de transformation de la pomme de terre",
		Moisture:       "Humidité",
		Starch:         "Amidon",
		Fibre:          "Cellulose brute",
	},
	"da": {
		ProductTitle:   "TØRRET KARTOFFELPULVER",
		Batch:          "PARTI:",
		ProductionDate: "PRODUKTIONSDATO:",
		Feed1:          "fodermiddel",
		Feed2:          "Produkt fra kartoffelforarbejdningsindustrien",
		Moisture:       "Fugt",
		Starch:         "Stivelse",
		Fibre:          "Rå fiber",
	},
	"cs": {
		ProductTitle:   "SUŠENÝ BRAMBOROVÝ PRÁŠEK",
		Batch:          "ŠARŽE:",
		ProductionDate: "DATUM VÝROBY:",
		Feed1:          "krmná surovina",
		Feed2:          "Výrobek bramborářského průmyslu",
		Moisture:       "Vlhkost",
		Starch:         "Škrob",
		Fibre:          "Hrubá vláknina",
	},
	"it": {
		ProductTitle:   "POLVERE DI PATATA ESSICCATA",
		Batch:          "LOTTO:",
		ProductionDate: "DATA DI PRODUZIONE:",
		Feed1:          "materia prima per mangimi",
		Feed2:          "Prodotto dell'industria di trasformazione della patata",
		Moisture:       "Umidità",
		Starch:         "Amido",
		Fibre:          "Fibra grezza",
	},
}

// Languages returns the label language codes in menu order.
func Languages() []string {
	out := make([]string, len(supported))
	for i, t := range supported {
		base, _ := t.Base()
		out[i] = base.String()
	}
	return out
}

// Lookup matches lang (a code like "fr", "fr-BE" or an Accept-Language
// value) against the label languages. Anything unmatched prints in Dutch.
func Lookup(lang string) (string, Texts) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return "nl", texts["nl"]
	}
	tags, _, err := language.ParseAcceptLanguage(lang)
	if err != nil || len(tags) == 0 {
		return "nl", texts["nl"]
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return "nl", texts["nl"]
	}
	base, _ := supported[idx].Base()
	return base.String(), texts[base.String()]
}
