package scoring

// Dictionaries holds the fixed keyword sets each text-derived sub-score
// matches against. Keywords are compared lowercase; multi-word phrases
// match as literal substrings.
type Dictionaries struct {
	PainPoints     []string
	Opportunity    []string
	Decision       []string
	Income         []string
	StableWork     []string
	Savings        []string
	DebtPressure   []string
	Curiosity      []string
}

// englishDictionaries is the English keyword set.
var englishDictionaries = Dictionaries{
	PainPoints: []string{
		"extra income", "income", "need money", "struggling", "bills",
		"debt", "laid off", "tight budget", "no savings", "hard times",
	},
	Opportunity: []string{
		"looking for", "open to", "opportunity", "side hustle",
		"extra income", "work from home", "interested in",
	},
	Decision: []string{
		"ready to start", "sign me up", "how much", "where do i sign",
		"start now", "let's do it",
	},
	Income: []string{
		"salary", "income", "business", "commission", "bonus", "payday",
	},
	StableWork: []string{
		"full-time", "full time", "regular employee", "permanent",
		"government", "nurse", "engineer", "teacher", "manager",
	},
	Savings: []string{
		"savings", "investment", "invested", "emergency fund", "saving up",
	},
	DebtPressure: []string{
		"debt", "loan", "credit card", "behind on", "borrowed",
	},
	Curiosity: []string{
		"curious", "interested", "tell me more", "how does", "want to know",
		"looking for",
	},
}

// filipinoDictionaries is the Filipino/Taglish keyword set. Prospect text
// in this market routinely mixes the two languages, so the default locale
// merges both sets.
var filipinoDictionaries = Dictionaries{
	PainPoints: []string{
		"utang", "kulang", "gastos", "walang pera", "kailangan ng pera",
		"hirap", "sweldo kulang",
	},
	Opportunity: []string{
		"raket", "sideline", "negosyo", "extra", "pagkakakitaan",
	},
	Decision: []string{
		"paano sumali", "magkano", "san mag sign up", "game ako",
	},
	Income: []string{
		"sweldo", "kita", "negosyo", "sahod",
	},
	StableWork: []string{
		"regular na trabaho", "ofw", "gobyerno",
	},
	Savings: []string{
		"ipon", "naipon", "impok",
	},
	DebtPressure: []string{
		"utang", "hulugan", "5-6", "sangla",
	},
	Curiosity: []string{
		"paano", "ano yan", "pa-explain", "interesado",
	},
}

// DictionariesForLocale returns the keyword set for a locale: "en", "fil",
// or "mixed" (the default, merging both).
func DictionariesForLocale(locale string) Dictionaries {
	switch locale {
	case "en":
		return englishDictionaries
	case "fil":
		return filipinoDictionaries
	default:
		return mergeDictionaries(englishDictionaries, filipinoDictionaries)
	}
}

func mergeDictionaries(a, b Dictionaries) Dictionaries {
	return Dictionaries{
		PainPoints:   append(append([]string{}, a.PainPoints...), b.PainPoints...),
		Opportunity:  append(append([]string{}, a.Opportunity...), b.Opportunity...),
		Decision:     append(append([]string{}, a.Decision...), b.Decision...),
		Income:       append(append([]string{}, a.Income...), b.Income...),
		StableWork:   append(append([]string{}, a.StableWork...), b.StableWork...),
		Savings:      append(append([]string{}, a.Savings...), b.Savings...),
		DebtPressure: append(append([]string{}, a.DebtPressure...), b.DebtPressure...),
		Curiosity:    append(append([]string{}, a.Curiosity...), b.Curiosity...),
	}
}
