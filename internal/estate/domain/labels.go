package domain

import "golang.org/x/text/language"

// supportedLanguages is ordered by preference; the first entry is the fallback.
var supportedLanguages = []language.Tag{language.Japanese, language.English}

var languageMatcher = language.NewMatcher(supportedLanguages)

// labels maps an enumeration value to its display label per language.
var labels = map[string]map[language.Tag]string{
	string(BuildingTypeTree):     {language.Japanese: "木造", language.English: "Wooden"},
	string(BuildingTypeConcrete): {language.Japanese: "コンクリート", language.English: "Concrete"},
	string(LoanTypeAdjustable):   {language.Japanese: "変動金利", language.English: "Adjustable rate"},
	string(LoanTypeFixed):        {language.Japanese: "固定金利", language.English: "Fixed rate"},
	string(LoanPayTypeLevel):     {language.Japanese: "元利均等返済", language.English: "Level payment"},
	string(LoanPayTypePrincipal): {language.Japanese: "元金均等返済", language.English: "Equal principal"},
}

// MatchLanguage picks the best supported language for an Accept-Language header.
func MatchLanguage(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return supportedLanguages[0]
	}
	_, idx, _ := languageMatcher.Match(tags...)
	return supportedLanguages[idx]
}

// Label returns the display label of an enumeration value. Unknown values
// fall back to the value itself.
func Label(value string, lang language.Tag) string {
	byLang, ok := labels[value]
	if !ok {
		return value
	}
	if label, ok := byLang[lang]; ok {
		return label
	}
	return byLang[supportedLanguages[0]]
}
