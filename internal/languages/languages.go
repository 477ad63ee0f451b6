package languages

// Language is one language of the annotated corpus. Name doubles as the
// path component under which the corpus bucket stores that language's
// videos and feeds.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// corpusLanguages lists the languages the annotation pipeline publishes,
// in display order.
var corpusLanguages = []Language{
	{Code: "en", Name: "English"},
	{Code: "zh", Name: "Chinese"},
	{Code: "fr", Name: "French"},
	{Code: "hi", Name: "Hindi"},
	{Code: "pt", Name: "Portuguese"},
	{Code: "ru", Name: "Russian"},
	{Code: "es", Name: "Spanish"},
}

// causalLanguage names the only language with causal-graph annotation.
// Causal mode is never offered for any other language.
const causalLanguage = "English"

func Corpus() []Language {
	out := make([]Language, len(corpusLanguages))
	copy(out, corpusLanguages)
	return out
}

// IsCorpusLanguage reports whether name is a published language, by its
// storage path name.
func IsCorpusLanguage(name string) bool {
	for _, l := range corpusLanguages {
		if l.Name == name {
			return true
		}
	}
	return false
}

// SupportsCausal reports whether causal annotation can exist for the
// language. Individual videos still carry their own availability flag in
// the catalog.
func SupportsCausal(name string) bool {
	return name == causalLanguage
}
