package prompt

import "fmt"

// Supported phrasing languages.
const (
	LanguageEnglish = "en"
	LanguagePersian = "fa"
)

// phrases holds the literal connective text for one output language. The
// block structure is identical across languages; only these strings differ.
type phrases struct {
	tag          string
	preamble     string
	tableLabel   string
	columnsLabel string
	samplesLabel string
	omitted      string // fmt verb: number of omitted tables
}

var englishPhrases = phrases{
	tag: LanguageEnglish,
	preamble: "You are a business analytics assistant for an e-commerce database. " +
		"Answer questions by writing SQL against the schema described below, using only " +
		"the tables and columns listed. When summarizing results, prefer clear business " +
		"insight over raw numbers: point out trends, anomalies, and actionable findings.\n\n" +
		"Database schema:",
	tableLabel:   "Table:",
	columnsLabel: "Columns:",
	samplesLabel: "Sample rows:",
	omitted:      "[schema truncated: %d tables omitted]",
}

var persianPhrases = phrases{
	tag: LanguagePersian,
	preamble: "شما یک دستیار تحلیل کسب‌وکار برای یک پایگاه‌داده فروشگاه اینترنتی هستید. " +
		"به پرسش‌ها با نوشتن SQL بر اساس ساختار زیر پاسخ دهید و فقط از جدول‌ها و ستون‌های " +
		"فهرست‌شده استفاده کنید. در جمع‌بندی نتایج، به‌جای اعداد خام بر بینش کسب‌وکار تمرکز کنید: " +
		"روندها، ناهنجاری‌ها و یافته‌های قابل اقدام را برجسته کنید.\n\n" +
		"ساختار پایگاه‌داده:",
	tableLabel:   "جدول:",
	columnsLabel: "ستون‌ها:",
	samplesLabel: "نمونه داده:",
	omitted:      "[ساختار کوتاه شد: %d جدول حذف شد]",
}

// phrasesFor resolves a language tag. Empty means English.
func phrasesFor(language string) (phrases, error) {
	switch language {
	case "", LanguageEnglish:
		return englishPhrases, nil
	case LanguagePersian:
		return persianPhrases, nil
	default:
		return phrases{}, fmt.Errorf("%w: unsupported language %q", ErrConfig, language)
	}
}

// PreambleLength returns the preamble length in bytes for a language. Callers
// can use it to pick a sane MaxChars before building.
func PreambleLength(language string) (int, error) {
	phr, err := phrasesFor(language)
	if err != nil {
		return 0, err
	}

	return len(phr.preamble), nil
}
