package census

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// State is a US state or territory with its two-digit FIPS code.
type State struct {
	Name string `json:"name"`
	Abbr string `json:"abbr"`
	FIPS string `json:"fips"`
}

var states = []State{
	{"Alabama", "AL", "01"},
	{"Alaska", "AK", "02"},
	{"Arizona", "AZ", "04"},
	{"Arkansas", "AR", "05"},
	{"California", "CA", "06"},
	{"Colorado", "CO", "08"},
	{"Connecticut", "CT", "09"},
	{"Delaware", "DE", "10"},
	{"District of Columbia", "DC", "11"},
	{"Florida", "FL", "12"},
	{"Georgia", "GA", "13"},
	{"Hawaii", "HI", "15"},
	{"Idaho", "ID", "16"},
	{"Illinois", "IL", "17"},
	{"Indiana", "IN", "18"},
	{"Iowa", "IA", "19"},
	{"Kansas", "KS", "20"},
	{"Kentucky", "KY", "21"},
	{"Louisiana", "LA", "22"},
	{"Maine", "ME", "23"},
	{"Maryland", "MD", "24"},
	{"Massachusetts", "MA", "25"},
	{"Michigan", "MI", "26"},
	{"Minnesota", "MN", "27"},
	{"Mississippi", "MS", "28"},
	{"Missouri", "MO", "29"},
	{"Montana", "MT", "30"},
	{"Nebraska", "NE", "31"},
	{"Nevada", "NV", "32"},
	{"New Hampshire", "NH", "33"},
	{"New Jersey", "NJ", "34"},
	{"New Mexico", "NM", "35"},
	{"New York", "NY", "36"},
	{"North Carolina", "NC", "37"},
	{"North Dakota", "ND", "38"},
	{"Ohio", "OH", "39"},
	{"Oklahoma", "OK", "40"},
	{"Oregon", "OR", "41"},
	{"Pennsylvania", "PA", "42"},
	{"Rhode Island", "RI", "44"},
	{"South Carolina", "SC", "45"},
	{"South Dakota", "SD", "46"},
	{"Tennessee", "TN", "47"},
	{"Texas", "TX", "48"},
	{"Utah", "UT", "49"},
	{"Vermont", "VT", "50"},
	{"Virginia", "VA", "51"},
	{"Washington", "WA", "53"},
	{"West Virginia", "WV", "54"},
	{"Wisconsin", "WI", "55"},
	{"Wyoming", "WY", "56"},
	{"American Samoa", "AS", "60"},
	{"Guam", "GU", "66"},
	{"Northern Mariana Islands", "MP", "69"},
	{"Puerto Rico", "PR", "72"},
	{"Virgin Islands", "VI", "78"},
}

type StateNotFoundError struct {
	Query string
}

func (e *StateNotFoundError) Error() string {
	return fmt.Sprintf("state %q not found", e.Query)
}

// normalizeName lowercases, strips accents and collapses whitespace so that
// "  puerto  rico" and "Puerto Rico" compare equal.
func normalizeName(s string) string {
	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(stripAccents, strings.ToLower(s))
	return strings.Join(strings.Fields(result), " ")
}

// LookupState finds a state by abbreviation, name or FIPS code.
func LookupState(query string) (State, error) {
	q := normalizeName(query)
	if q == "" {
		return State{}, &StateNotFoundError{Query: query}
	}
	for _, s := range states {
		if q == strings.ToLower(s.Abbr) || q == normalizeName(s.Name) || q == s.FIPS {
			return s, nil
		}
	}
	return State{}, &StateNotFoundError{Query: query}
}

// StateFIPS resolves a state reference to the FIPS code used in TIGER file
// names. Numeric input is returned unchanged.
func StateFIPS(query string) (string, error) {
	query = strings.TrimSpace(query)
	if isNumeric(query) {
		return query, nil
	}
	s, err := LookupState(query)
	if err != nil {
		return "", err
	}
	return s.FIPS, nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
