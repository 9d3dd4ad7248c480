package bom

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// rolePriority breaks ties when a header token matches synonyms of equal
// length in two roles. Earlier wins.
var rolePriority = []ColumnRole{
	ColumnRolePartNumber,
	ColumnRolePosition,
	ColumnRoleDescription,
	ColumnRoleQuantity,
	ColumnRoleUnit,
	ColumnRoleMaterial,
	ColumnRoleComment,
}

// defaultSynonyms is the built-in multilingual (German/English) header
// synonym table. Keys are matched after normalization, so entries may be
// written in natural form.
var defaultSynonyms = map[ColumnRole][]string{
	ColumnRolePosition: {
		"position", "pos", "pos.", "item", "itemno", "item no", "item no.",
		"no", "nr", "lfd nr", "index",
	},
	ColumnRolePartNumber: {
		"part", "partno", "part no", "part-number", "part number", "article",
		"artikel", "artikelnummer", "artikel-nr", "artnr", "art.nr", "drawing", "drawing no",
		"zeichnung", "zeichnungsnr", "bestellnr", "order no", "item code",
		"teilenummer", "sachnummer",
	},
	ColumnRoleDescription: {
		"description", "descr", "desc", "bezeichnung", "benennung",
		"designation", "title", "titel", "beschreibung", "teil",
	},
	ColumnRoleQuantity: {
		"qty", "qty.", "quantity", "menge", "anzahl", "stück", "stückzahl",
		"stk", "st", "pcs", "pieces",
	},
	ColumnRoleUnit: {
		"unit", "einheit", "uom", "me", "maßeinheit",
	},
	ColumnRoleMaterial: {
		"material", "werkstoff", "mat", "mat.",
	},
	ColumnRoleComment: {
		"comment", "comments", "bemerkung", "bemerkungen", "note", "notes",
		"remark", "remarks", "hinweis",
	},
}

// HeaderClassifier maps header-row tokens to canonical column roles using a
// normalized synonym lookup. Classification is a pure function of the token.
type HeaderClassifier struct {
	// normalized synonym -> role; built once at construction.
	lookup map[string]ColumnRole
	// normalized synonym -> original length, for longest-match tie breaks.
	length map[string]int
}

// NewHeaderClassifier builds a classifier from the built-in synonym table.
func NewHeaderClassifier() *HeaderClassifier {
	return newHeaderClassifier(defaultSynonyms)
}

// NewHeaderClassifierWithSynonyms overlays extra synonyms (e.g. loaded from a
// user YAML file) on top of the built-in table. Overlay entries win.
func NewHeaderClassifierWithSynonyms(extra map[ColumnRole][]string) *HeaderClassifier {
	merged := make(map[ColumnRole][]string, len(defaultSynonyms))
	for role, syns := range defaultSynonyms {
		merged[role] = append(merged[role], syns...)
	}
	for role, syns := range extra {
		merged[role] = append(merged[role], syns...)
	}
	return newHeaderClassifier(merged)
}

func newHeaderClassifier(table map[ColumnRole][]string) *HeaderClassifier {
	c := &HeaderClassifier{
		lookup: make(map[string]ColumnRole),
		length: make(map[string]int),
	}
	// Insert in fixed priority order so ties on identical normalized
	// synonyms resolve deterministically.
	for _, role := range rolePriority {
		for _, syn := range table[role] {
			key := NormalizeHeaderToken(syn)
			if key == "" {
				continue
			}
			if existing, ok := c.lookup[key]; ok {
				// Longest original synonym wins; on equal length the
				// earlier (higher-priority) role stays.
				if len(syn) <= c.length[key] || existing == role {
					continue
				}
			}
			c.lookup[key] = role
			c.length[key] = len(syn)
		}
	}
	return c
}

// Classify maps a single header token to a column role. Tokens matching
// nothing map to ColumnRoleUnknown.
func (c *HeaderClassifier) Classify(token string) ColumnRole {
	key := NormalizeHeaderToken(token)
	if key == "" {
		return ColumnRoleUnknown
	}
	if role, ok := c.lookup[key]; ok {
		return role
	}
	return ColumnRoleUnknown
}

// ClassifyRow maps a header row to roles aligned with the input column
// index. Each role is assigned at most once; a second token matching an
// already-assigned role maps to ColumnRoleUnknown so column alignment is
// preserved downstream.
func (c *HeaderClassifier) ClassifyRow(tokens []string) []ColumnRole {
	roles := make([]ColumnRole, len(tokens))
	seen := make(map[ColumnRole]bool)
	for i, token := range tokens {
		role := c.Classify(token)
		if role != ColumnRoleUnknown && seen[role] {
			role = ColumnRoleUnknown
		}
		roles[i] = role
		if role != ColumnRoleUnknown {
			seen[role] = true
		}
	}
	return roles
}

// NormalizeHeaderToken lowercases a token, folds German diacritics and strips
// everything that is not a letter or digit.
func NormalizeHeaderToken(token string) string {
	lowered := strings.ToLower(strings.TrimSpace(token))
	folded := strings.NewReplacer(
		"ä", "a", "ö", "o", "ü", "u", "ß", "ss",
	).Replace(lowered)

	var b strings.Builder
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// synonymsFile is the YAML layout of a user-provided synonym overlay.
type synonymsFile struct {
	Roles map[string][]string `yaml:"roles"`
}

// LoadSynonyms reads a YAML synonym overlay keyed by canonical role name.
func LoadSynonyms(path string) (map[ColumnRole][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read synonyms file: %w", err)
	}

	var file synonymsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse synonyms file: %w", err)
	}

	valid := make(map[ColumnRole]bool, len(rolePriority))
	for _, role := range rolePriority {
		valid[role] = true
	}

	out := make(map[ColumnRole][]string, len(file.Roles))
	for name, syns := range file.Roles {
		role := ColumnRole(name)
		if !valid[role] {
			return nil, fmt.Errorf("unknown column role %q in synonyms file", name)
		}
		out[role] = syns
	}
	return out, nil
}
