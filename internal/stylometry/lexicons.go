package stylometry

// Closed-class function words: content-independent and style-revealing,
// the backbone of authorship attribution.
var functionWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"if": true, "then": true, "because": true, "as": true, "until": true,
	"while": true, "of": true, "at": true, "by": true, "for": true,
	"with": true, "about": true, "against": true, "between": true,
	"into": true, "through": true, "during": true, "before": true,
	"after": true, "above": true, "below": true, "to": true, "from": true,
	"up": true, "down": true, "in": true, "out": true, "on": true,
	"off": true, "over": true, "under": true, "again": true, "further": true,
	"once": true, "here": true, "there": true, "when": true, "where": true,
	"why": true, "how": true, "all": true, "each": true, "few": true,
	"more": true, "most": true, "other": true, "some": true, "such": true,
	"no": true, "nor": true, "not": true, "only": true, "own": true,
	"same": true, "so": true, "than": true, "too": true, "very": true,
	"can": true, "will": true, "just": true, "should": true, "now": true,
	"i": true, "you": true, "he": true, "she": true, "it": true, "we": true,
	"they": true, "what": true, "which": true, "who": true, "this": true,
	"that": true, "these": true, "those": true, "am": true, "is": true,
	"are": true, "was": true, "were": true, "be": true, "been": true,
	"being": true, "have": true, "has": true, "had": true, "having": true,
	"do": true, "does": true, "did": true, "doing": true, "would": true,
	"could": true, "might": true, "must": true, "shall": true,
	"however": true, "therefore": true, "thus": true, "hence": true,
	"also": true, "yet": true, "still": true, "already": true,
	"always": true, "never": true, "ever": true,
}

// Hedging words indicate uncertainty, common in deceptive text.
var hedgeWords = map[string]bool{
	"maybe": true, "perhaps": true, "possibly": true, "probably": true,
	"might": true, "could": true, "may": true, "seem": true, "seems": true,
	"appeared": true, "appears": true, "believe": true, "think": true,
	"guess": true, "suppose": true, "assume": true, "likely": true,
	"unlikely": true, "somewhat": true, "rather": true, "fairly": true,
	"quite": true, "approximately": true, "roughly": true,
}

// Overconfidence markers; their absence or spike both carry signal.
var certaintyWords = map[string]bool{
	"definitely": true, "certainly": true, "absolutely": true,
	"always": true, "never": true, "must": true, "undoubtedly": true,
	"clearly": true, "obviously": true, "surely": true, "truly": true,
	"really": true, "totally": true, "completely": true, "entirely": true,
	"positively": true, "guaranteed": true,
}

// Urgency phrases matched as substrings of the whole text, so that
// multi-word pressure phrases count too.
var urgencyPhrases = []string{
	"urgent", "asap", "immediately", "right now", "right away", "quickly",
	"hurry", "rush", "fast", "time-sensitive", "deadline", "critical",
	"important", "priority", "emergency", "today", "now", "instant",
	"before end of day", "eod", "cob", "by close of business",
}

var firstPersonWords = map[string]bool{
	"i": true, "me": true, "my": true, "mine": true, "myself": true,
}
