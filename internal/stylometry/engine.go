package stylometry

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// authors need this many substantial samples before a profile is built
const minProfileSamples = 10

// bodies at or under this length carry too little signal to fingerprint
const MinSampleLength = 100

var (
	wordRe        = regexp.MustCompile(`[a-z]+`)
	sentenceRe    = regexp.MustCompile(`[.!?]+`)
	contractionRe = regexp.MustCompile(`\w+'\w+`)
)

// Features is the style vector extracted from a single text.
type Features struct {
	AvgWordLength      float64
	VocabularyRichness float64
	FunctionWords      map[string]float64
	AvgSentenceLength  float64
	SentenceLengthStd  float64
	CommaRate          float64
	SemicolonRate      float64
	ExclamationRate    float64
	QuestionRate       float64
	DashRate           float64
	ContractionRate    float64
	FirstPersonRate    float64
	FormalityScore     float64
	HedgeCount         int
	CertaintyCount     int
	UrgencyCount       int
}

// Profile is the averaged writing fingerprint of one author.
type Profile struct {
	Author string

	AvgWordLength      float64
	VocabularyRichness float64
	FunctionWordFreq   map[string]float64
	AvgSentenceLength  float64
	SentenceLengthStd  float64
	CommaRate          float64
	SemicolonRate      float64
	ExclamationRate    float64
	QuestionRate       float64
	DashRate           float64
	ContractionRate    float64
	FirstPersonRate    float64
	FormalityScore     float64

	SampleCount int
	TotalWords  int
}

// Comparison is the result of scoring a text against an author profile.
type Comparison struct {
	Author         string   `json:"author"`
	HasProfile     bool     `json:"has_profile"`
	Similarity     float64  `json:"similarity"`
	DeviationScore float64  `json:"deviation_score"`
	Deviations     []string `json:"deviations"`
	RiskLevel      string   `json:"risk_level"`
	Message        string   `json:"message,omitempty"`
}

// Engine accumulates writing samples per author and builds comparable
// style fingerprints from them.
type Engine struct {
	profiles map[string]*Profile
	samples  map[string][]string
}

// NewEngine creates an empty stylometry engine.
func NewEngine() *Engine {
	return &Engine{
		profiles: make(map[string]*Profile),
		samples:  make(map[string][]string),
	}
}

// Tokenize lowercases the text and extracts alphabetic words.
func Tokenize(text string) []string {
	return wordRe.FindAllString(strings.ToLower(text), -1)
}

func sentences(text string) []string {
	parts := sentenceRe.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ExtractFeatures computes the style vector for one text. It returns
// false when the text yields no words at all.
func ExtractFeatures(text string) (Features, bool) {
	words := Tokenize(text)
	if len(words) == 0 {
		return Features{}, false
	}
	sents := sentences(text)
	wordCount := float64(len(words))

	var f Features

	totalLen := 0
	unique := make(map[string]bool, len(words))
	for _, w := range words {
		totalLen += len(w)
		unique[w] = true
	}
	f.AvgWordLength = float64(totalLen) / wordCount
	f.VocabularyRichness = float64(len(unique)) / wordCount

	f.FunctionWords = make(map[string]float64)
	for _, w := range words {
		if functionWords[w] {
			f.FunctionWords[w] += 1 / wordCount
		}
	}

	if len(sents) > 0 {
		lengths := make([]float64, len(sents))
		for i, s := range sents {
			lengths[i] = float64(len(Tokenize(s)))
		}
		f.AvgSentenceLength = meanFloat(lengths)
		if len(lengths) > 1 {
			f.SentenceLengthStd = stdevFloat(lengths)
		}
	} else {
		f.AvgSentenceLength = wordCount
	}

	f.CommaRate = float64(strings.Count(text, ",")) / wordCount * 100
	f.SemicolonRate = float64(strings.Count(text, ";")) / wordCount * 100
	f.ExclamationRate = float64(strings.Count(text, "!")) / wordCount * 100
	f.QuestionRate = float64(strings.Count(text, "?")) / wordCount * 100
	f.DashRate = float64(strings.Count(text, "-")+strings.Count(text, "—")) / wordCount * 100

	lower := strings.ToLower(text)
	f.ContractionRate = float64(len(contractionRe.FindAllString(lower, -1))) / wordCount * 100

	firstPerson := 0
	for _, w := range words {
		if firstPersonWords[w] {
			firstPerson++
		}
	}
	f.FirstPersonRate = float64(firstPerson) / wordCount * 100

	formality := 0.5
	if f.ContractionRate > 2 {
		formality -= 0.2
	}
	if f.ExclamationRate > 1 {
		formality -= 0.1
	}
	if f.AvgSentenceLength > 20 {
		formality += 0.2
	}
	f.FormalityScore = math.Max(0, math.Min(1, formality))

	for _, w := range words {
		if hedgeWords[w] {
			f.HedgeCount++
		}
		if certaintyWords[w] {
			f.CertaintyCount++
		}
	}
	for _, phrase := range urgencyPhrases {
		if strings.Contains(lower, phrase) {
			f.UrgencyCount++
		}
	}

	return f, true
}

// AddSample accumulates a text sample for an author.
func (e *Engine) AddSample(author, text string) {
	author = strings.ToLower(author)
	e.samples[author] = append(e.samples[author], text)
}

// Authors returns every author with at least one accumulated sample.
func (e *Engine) Authors() []string {
	out := make([]string, 0, len(e.samples))
	for a := range e.samples {
		out = append(out, a)
	}
	return out
}

// ProfileCount returns the number of built profiles.
func (e *Engine) ProfileCount() int { return len(e.profiles) }

// Profile returns the built profile for an author, or nil.
func (e *Engine) Profile(author string) *Profile {
	return e.profiles[strings.ToLower(author)]
}

// BuildProfile averages the feature vectors of all accumulated samples
// into a fingerprint. Authors with fewer than ten samples get no
// profile; analysis then reports "no profile" instead of a score.
func (e *Engine) BuildProfile(author string) *Profile {
	author = strings.ToLower(author)
	samples := e.samples[author]
	if len(samples) < minProfileSamples {
		return nil
	}

	var all []Features
	totalWords := 0
	for _, text := range samples {
		if f, ok := ExtractFeatures(text); ok {
			all = append(all, f)
		}
		totalWords += len(Tokenize(text))
	}
	if len(all) == 0 {
		return nil
	}

	p := &Profile{
		Author:           author,
		FunctionWordFreq: make(map[string]float64),
		SampleCount:      len(all),
		TotalWords:       totalWords,
	}

	n := float64(len(all))
	for _, f := range all {
		p.AvgWordLength += f.AvgWordLength / n
		p.VocabularyRichness += f.VocabularyRichness / n
		p.AvgSentenceLength += f.AvgSentenceLength / n
		p.SentenceLengthStd += f.SentenceLengthStd / n
		p.CommaRate += f.CommaRate / n
		p.SemicolonRate += f.SemicolonRate / n
		p.ExclamationRate += f.ExclamationRate / n
		p.QuestionRate += f.QuestionRate / n
		p.DashRate += f.DashRate / n
		p.ContractionRate += f.ContractionRate / n
		p.FirstPersonRate += f.FirstPersonRate / n
		p.FormalityScore += f.FormalityScore / n
	}

	// each word averaged over the samples that contain it
	merged := make(map[string][]float64)
	for _, f := range all {
		for w, freq := range f.FunctionWords {
			merged[w] = append(merged[w], freq)
		}
	}
	for w, freqs := range merged {
		p.FunctionWordFreq[w] = meanFloat(freqs)
	}

	e.profiles[author] = p
	return p
}

// CompareToProfile scores a text against an author's fingerprint. Six
// profiled features are checked against fixed per-feature tolerances; a
// Burrows'-Delta-like average over the profiled function words catches
// distributional drift; urgency and hedging spikes add on top.
func (e *Engine) CompareToProfile(text, author string) Comparison {
	author = strings.ToLower(author)
	p := e.profiles[author]
	if p == nil {
		return Comparison{
			Author:     author,
			HasProfile: false,
			Similarity: 0.5,
			RiskLevel:  deviationLevel(0),
			Message:    "No style profile available",
		}
	}

	f, ok := ExtractFeatures(text)
	if !ok {
		return Comparison{
			Author:     author,
			HasProfile: true,
			Similarity: 0.5,
			RiskLevel:  deviationLevel(0),
			Message:    "Text too short to analyze",
		}
	}

	var deviations []string
	deviation := 0.0

	checks := []struct {
		expected  float64
		actual    float64
		threshold float64
		label     string
	}{
		{p.AvgWordLength, f.AvgWordLength, 0.5, "WORD LENGTH"},
		{p.AvgSentenceLength, f.AvgSentenceLength, 3.0, "SENTENCE LENGTH"},
		{p.CommaRate, f.CommaRate, 1.0, "COMMA USAGE"},
		{p.ExclamationRate, f.ExclamationRate, 0.5, "EXCLAMATION USAGE"},
		{p.ContractionRate, f.ContractionRate, 1.0, "CONTRACTION USAGE"},
		{p.FormalityScore, f.FormalityScore, 0.2, "FORMALITY LEVEL"},
	}
	for _, c := range checks {
		diff := math.Abs(c.expected - c.actual)
		if diff > c.threshold {
			deviations = append(deviations, fmt.Sprintf(
				"%s: Expected %.2f, got %.2f", c.label, c.expected, c.actual))
			deviation += math.Min(diff/(c.threshold*2), 0.3)
		}
	}

	if len(p.FunctionWordFreq) > 0 && len(f.FunctionWords) > 0 {
		totalDiff := 0.0
		compared := 0
		for w, expected := range p.FunctionWordFreq {
			totalDiff += math.Abs(expected - f.FunctionWords[w])
			compared++
		}
		if compared > 0 {
			avgDiff := totalDiff / float64(compared)
			if avgDiff > 0.01 {
				deviations = append(deviations, fmt.Sprintf(
					"FUNCTION_WORDS: Distribution differs by %.1f%%", avgDiff*100))
				deviation += math.Min(avgDiff*10, 0.3)
			}
		}
	}

	if f.UrgencyCount > 2 {
		deviations = append(deviations, fmt.Sprintf(
			"URGENCY_SPIKE: %d urgency markers detected", f.UrgencyCount))
		deviation += 0.2
	}
	if f.HedgeCount > 3 {
		deviations = append(deviations, fmt.Sprintf(
			"HEDGING: Unusual hedging language (%d instances)", f.HedgeCount))
		deviation += 0.1
	}

	return Comparison{
		Author:         author,
		HasProfile:     true,
		Similarity:     math.Max(0, 1-deviation),
		DeviationScore: deviation,
		Deviations:     deviations,
		RiskLevel:      deviationLevel(deviation),
	}
}

func deviationLevel(deviation float64) string {
	switch {
	case deviation >= 0.5:
		return "HIGH"
	case deviation >= 0.3:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

func meanFloat(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdevFloat(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := meanFloat(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
