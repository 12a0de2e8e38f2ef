package voices

// Language is a supported language
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var languages = []Language{
	{Code: "en", Name: "English"}, {Code: "es", Name: "Spanish"}, {Code: "fr", Name: "French"},
	{Code: "de", Name: "German"}, {Code: "it", Name: "Italian"}, {Code: "pt", Name: "Portuguese"},
	{Code: "pl", Name: "Polish"}, {Code: "nl", Name: "Dutch"}, {Code: "sv", Name: "Swedish"},
	{Code: "lt", Name: "Lithuanian"}, {Code: "uk", Name: "Ukrainian"}, {Code: "ru", Name: "Russian"},
	{Code: "tr", Name: "Turkish"}, {Code: "ar", Name: "Arabic"}, {Code: "hi", Name: "Hindi"},
	{Code: "zh", Name: "Chinese"}, {Code: "ja", Name: "Japanese"}, {Code: "ko", Name: "Korean"},
	{Code: "id", Name: "Indonesian"},
}

// Languages returns all supported languages, every language can be a source and a target
func Languages() []Language {
	return append([]Language{}, languages...)
}

// IsLanguage checks code is supported
func IsLanguage(code string) bool {
	for _, l := range languages {
		if l.Code == code {
			return true
		}
	}
	return false
}
