package translate

import "strings"

// Codec converts caller locale identifiers into one provider's dialect.
// The override table is matched against the full normalized code only;
// anything else goes through the fallback.
type Codec struct {
	overrides map[string]string
	fallback  func(string) string
}

// Convert returns the provider code for code.
func (c Codec) Convert(code string) string {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return ""
	}

	if mapped, ok := c.overrides[normalized]; ok {
		return mapped
	}

	if c.fallback == nil {
		return normalized
	}
	return c.fallback(normalized)
}

// MicrosoftCodec serves the Microsoft Translator V2 API.
var MicrosoftCodec = Codec{
	overrides: map[string]string{
		"zh-tw": "zh-CHT",
		"zh-cn": "zh-CHS",
		"nb":    "no",
		"pt-br": "pt",
	},
}

// CognitiveCodec serves the Cognitive Services flavour of the Translator API,
// which mostly wants bare language codes.
var CognitiveCodec = Codec{
	overrides: map[string]string{
		"zh-hant":  "zh-CHT",
		"zh-hans":  "zh-CHS",
		"zh-tw":    "zh-CHT",
		"zh-cn":    "zh-CHS",
		"tlh-qaak": "tlh-Qaak",
		"nb":       "no",
		"bs-latn":  "bs-Latn",
		"sr-latn":  "sr-Latn",
		"sr-cyrl":  "sr-Cyrl",
	},
	fallback: BaseLanguage,
}

// TerminologyCodec serves the Terminology service, which takes full culture codes.
var TerminologyCodec = Codec{}

// NormalizeCode lower-cases code and unifies separators to "-".
func NormalizeCode(code string) string {
	normalized := strings.ToLower(strings.TrimSpace(code))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	return strings.Trim(normalized, "-")
}

// BaseLanguage returns the primary subtag of code ("pt" for "pt-br").
func BaseLanguage(code string) string {
	if idx := strings.IndexAny(code, "-_"); idx >= 0 {
		return code[:idx]
	}
	return code
}

func hasRegion(code string) bool {
	return strings.ContainsAny(code, "-_")
}
