package locale

// Pick returns the text matching the request language, defaulting to Spanish.
func Pick(language, english, spanish string) string {
	if NormalizeLanguage(language) == LanguageEnglish {
		if english != "" {
			return english
		}
		return spanish
	}
	if spanish != "" {
		return spanish
	}
	return english
}
