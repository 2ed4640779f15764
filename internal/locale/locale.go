// Package locale holds the presentation lookup tables used by reports:
// month abbreviations for bucket labels and display names for expense
// categories. Unknown locales fall back to English.
package locale

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"clinic/internal/core"
)

const Default = "en"

// monthAbbrev keeps each locale's native casing.
var monthAbbrev = map[string][12]string{
	"en": {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	"it": {"gen", "feb", "mar", "apr", "mag", "giu", "lug", "ago", "set", "ott", "nov", "dic"},
	"es": {"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"},
	"pt": {"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"},
	"fr": {"janv", "févr", "mars", "avr", "mai", "juin", "juil", "août", "sept", "oct", "nov", "déc"},
}

var categoryLabels = map[string]map[core.ExpenseCategory]string{
	"en": {
		core.Operational: "Operational",
		core.Salary:      "Salaries",
		core.Equipment:   "Equipment",
		core.Utilities:   "Utilities",
		core.Rent:        "Rent",
		core.Other:       "Other",
	},
	"it": {
		core.Operational: "Operative",
		core.Salary:      "Stipendi",
		core.Equipment:   "Attrezzature",
		core.Utilities:   "Utenze",
		core.Rent:        "Affitto",
		core.Other:       "Altro",
	},
	"es": {
		core.Operational: "Operativos",
		core.Salary:      "Salarios",
		core.Equipment:   "Equipamiento",
		core.Utilities:   "Servicios",
		core.Rent:        "Alquiler",
		core.Other:       "Otros",
	},
	"pt": {
		core.Operational: "Operacional",
		core.Salary:      "Salários",
		core.Equipment:   "Equipamentos",
		core.Utilities:   "Utilidades",
		core.Rent:        "Aluguel",
		core.Other:       "Outros",
	},
	"fr": {
		core.Operational: "Fonctionnement",
		core.Salary:      "Salaires",
		core.Equipment:   "Équipement",
		core.Utilities:   "Charges",
		core.Rent:        "Loyer",
		core.Other:       "Autres",
	},
}

// Normalize maps tags like "pt-BR" or "IT" onto a supported base locale.
func Normalize(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	if _, ok := monthAbbrev[tag]; ok {
		return tag
	}
	return Default
}

// Supported reports whether the base locale has its own tables.
func Supported(tag string) bool {
	_, ok := monthAbbrev[strings.ToLower(strings.TrimSpace(tag))]
	return ok
}

// MonthAbbrev returns the abbreviation of m as the locale writes it inside
// a date ("Jan" in English, "gen" in Italian).
func MonthAbbrev(tag string, m time.Month) string {
	return monthAbbrev[Normalize(tag)][m-1]
}

// Title capitalises s using the casing rules of the locale.
func Title(tag, s string) string {
	return cases.Title(language.Make(Normalize(tag))).String(s)
}

// CategoryLabel returns the display label of an expense category, or the raw
// code when the category is unknown.
func CategoryLabel(tag string, c core.ExpenseCategory) string {
	if l, ok := categoryLabels[Normalize(tag)][c]; ok {
		return l
	}
	return string(c)
}
