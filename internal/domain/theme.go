package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

type Theme struct {
	Font        ThemeFont         `json:"font"`
	Colors      map[string]string `json:"colors"`
	Layout      ThemeLayout       `json:"layout"`
	Transitions ThemeTransitions  `json:"transitions"`
}

type ThemeFont struct {
	Primary       string            `json:"primary"`
	Headings      string            `json:"headings"`
	CustomFontURL string            `json:"customFontUrl"`
	Sizes         map[string]string `json:"sizes"`
}

type ThemeLayout struct {
	ContentWidth string            `json:"contentWidth"`
	SidebarWidth string            `json:"sidebarWidth"`
	HeaderHeight string            `json:"headerHeight"`
	BorderRadius map[string]string `json:"borderRadius"`
	Spacing      map[string]string `json:"spacing"`
}

type ThemeTransitions struct {
	Duration string `json:"duration"`
	Timing   string `json:"timing"`
}

// DefaultTheme returns a fresh copy of the default theme.
func DefaultTheme() Theme {
	return Theme{
		Font: ThemeFont{
			Primary:  "Inter",
			Headings: "Inter",
			Sizes: map[string]string{
				"h1":    "2.5rem",
				"h2":    "2rem",
				"h3":    "1.75rem",
				"h4":    "1.5rem",
				"h5":    "1.25rem",
				"body":  "1rem",
				"small": "0.875rem",
			},
		},
		Colors: map[string]string{
			"primary":          "#0A0A0A",
			"secondary":        "#2A2A2A",
			"headerBg":         "#FFFFFF",
			"menuBg":           "#FFFFFF",
			"menuText":         "#4B5563",
			"menuTextHover":    "#111827",
			"menuTextActive":   "#FFFFFF",
			"buttonBg":         "#0A0A0A",
			"buttonText":       "#FFFFFF",
			"buttonHoverBg":    "#2A2A2A",
			"buttonHoverText":  "#FFFFFF",
			"inputBorder":      "#E4E7ED",
			"inputBorderFocus": "#0A0A0A",
			"inputBg":          "#FFFFFF",
			"inputText":        "#111827",
		},
		Layout: ThemeLayout{
			ContentWidth: "1440px",
			SidebarWidth: "280px",
			HeaderHeight: "64px",
			BorderRadius: map[string]string{"sm": "0.375rem", "md": "0.5rem", "lg": "0.75rem", "xl": "1rem"},
			Spacing:      map[string]string{"xs": "0.5rem", "sm": "1rem", "md": "1.5rem", "lg": "2rem", "xl": "3rem"},
		},
		Transitions: ThemeTransitions{Duration: "200ms", Timing: "ease-in-out"},
	}
}

// ParseTheme decodes saved overrides on top of the defaults and validates the result.
// An empty input yields the defaults.
func ParseTheme(raw []byte) (Theme, error) {
	t := DefaultTheme()
	if len(strings.TrimSpace(string(raw))) > 0 {
		if err := json.Unmarshal(raw, &t); err != nil {
			return Theme{}, ValidationError{Field: "theme", Message: err.Error()}
		}
	}
	if err := t.Validate(); err != nil {
		return Theme{}, err
	}
	return t, nil
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

func (t Theme) Validate() error {
	for k, v := range t.Colors {
		if !hexColor.MatchString(v) {
			return ValidationError{Field: "colors." + k, Message: fmt.Sprintf("invalid color %q", v)}
		}
	}
	for k, v := range t.Font.Sizes {
		if strings.TrimSpace(v) == "" {
			return ValidationError{Field: "font.sizes." + k, Message: "empty size"}
		}
	}
	if strings.TrimSpace(t.Font.Primary) == "" {
		return ValidationError{Field: "font.primary", Message: "required"}
	}
	return nil
}

// CSSVariables renders the theme as a :root block of custom properties.
func (t Theme) CSSVariables() string {
	var b strings.Builder
	b.WriteString(":root {\n")
	for _, k := range sortedKeys(t.Colors) {
		fmt.Fprintf(&b, "  --color-%s: %s;\n", k, t.Colors[k])
	}
	fmt.Fprintf(&b, "  --font-primary: %s;\n", t.Font.Primary)
	fmt.Fprintf(&b, "  --font-headings: %s;\n", t.Font.Headings)
	for _, k := range sortedKeys(t.Font.Sizes) {
		fmt.Fprintf(&b, "  --font-size-%s: %s;\n", k, t.Font.Sizes[k])
	}
	b.WriteString("}\n")
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
