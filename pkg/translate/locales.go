package translate

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLocales lists the region-qualified variant tried first for each bare language code.
var DefaultLocales = []string{
	"af_ZA", "am_ET", "ar_SA", "as_IN", "az_AZ", "be_BY", "bg_BG", "bn_BD", "bo_CN", "bs_BA",
	"ca_ES", "cs_CZ", "cy_GB", "da_DK", "de_DE", "dz_BT", "el_GR", "en_US", "es_ES", "et_EE",
	"eu_ES", "fa_IR", "fi_FI", "fr_FR", "ga_IE", "gl_ES", "gu_IN", "he_IL", "hi_IN", "hr_HR",
	"hu_HU", "hy_AM", "id_ID", "is_IS", "it_IT", "ja_JP", "ka_GE", "kk_KZ", "km_KH", "kn_IN",
	"ko_KR", "ku_TR", "lo_LA", "lt_LT", "lv_LV", "mg_MG", "mk_MK", "ml_IN", "mn_MN", "mr_IN",
	"ms_MY", "mt_MT", "my_MM", "nb_NO", "ne_NP", "nl_NL", "nn_NO", "or_IN", "pa_IN", "pl_PL",
	"ps_AF", "pt_PT", "ro_RO", "ru_RU", "si_LK", "sk_SK", "sl_SI", "sq_AL", "sr_RS", "sv_SE",
	"sw_KE", "ta_IN", "te_IN", "tg_TJ", "th_TH", "tk_TM", "tr_TR", "uk_UA", "ur_PK", "uz_UZ",
	"vi_VN", "zh_CN", "zh_TW",
}

// LocaleTable maps bare language codes to their known region-qualified variants,
// in table order.
type LocaleTable struct {
	variants map[string][]string
}

// ParseLocaleTable validates a flat list of language_REGION tags.
func ParseLocaleTable(tags []string) (LocaleTable, error) {
	table := LocaleTable{variants: make(map[string][]string, len(tags))}
	for _, raw := range tags {
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		if _, err := language.Parse(strings.ReplaceAll(tag, "_", "-")); err != nil {
			return LocaleTable{}, fmt.Errorf("parse locale %q: %w", tag, err)
		}
		base := strings.ToLower(BaseLanguage(tag))
		table.variants[base] = append(table.variants[base], tag)
	}
	return table, nil
}

// MustParseLocaleTable is ParseLocaleTable for static tables.
func MustParseLocaleTable(tags []string) LocaleTable {
	table, err := ParseLocaleTable(tags)
	if err != nil {
		panic(err)
	}
	return table
}

// DefaultLocaleTable returns the table built from DefaultLocales.
func DefaultLocaleTable() LocaleTable {
	return MustParseLocaleTable(DefaultLocales)
}

// Variants returns the region-qualified variants whose base language is base.
func (t LocaleTable) Variants(base string) []string {
	return t.variants[strings.ToLower(base)]
}

// Len returns the number of languages with at least one variant.
func (t LocaleTable) Len() int {
	return len(t.variants)
}
