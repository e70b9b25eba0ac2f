package stylometry

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const formalSample = `I have reviewed the quarterly budget projections and the numbers are consistent with our forecast. Please let me know if you would like to discuss the allocation at our next meeting. The finance team has prepared supporting detail for each line item.`

const pressuredSample = `URGENT!! I need you to wire the funds immediately, this must happen today! Don't tell anyone about this transfer, it is confidential. Deal closes asap and I am counting on you!`

func buildFormalProfile(t *testing.T, e *Engine, author string) *Profile {
	t.Helper()
	for i := 0; i < 10; i++ {
		e.AddSample(author, formalSample)
	}
	p := e.BuildProfile(author)
	require.NotNil(t, p)
	return p
}

func TestTokenize(t *testing.T) {
	words := Tokenize("Hello, World! Wire $50,000 now.")
	assert.Equal(t, []string{"hello", "world", "wire", "now"}, words)
}

func TestExtractFeaturesEmptyText(t *testing.T) {
	_, ok := ExtractFeatures("$$$ 123 ...")
	assert.False(t, ok)
}

func TestExtractFeaturesPressureMarkers(t *testing.T) {
	f, ok := ExtractFeatures(pressuredSample)
	require.True(t, ok)

	// urgent, immediately, today, asap and the embedded "now" all hit.
	assert.Greater(t, f.UrgencyCount, 2)
	assert.Greater(t, f.ExclamationRate, 0.5)
	assert.Greater(t, f.ContractionRate, 0.0)
	assert.Less(t, f.FormalityScore, 0.5)
}

func TestBuildProfileRequiresTenSamples(t *testing.T) {
	e := NewEngine()
	for i := 0; i < 9; i++ {
		e.AddSample("cfo@cyrenity.com", formalSample)
	}
	assert.Nil(t, e.BuildProfile("cfo@cyrenity.com"))
	assert.Equal(t, 0, e.ProfileCount())

	result := e.CompareToProfile(pressuredSample, "cfo@cyrenity.com")
	assert.False(t, result.HasProfile)
	assert.Equal(t, 0.5, result.Similarity)
	assert.Equal(t, "No style profile available", result.Message)
}

func TestCompareMatchingStyle(t *testing.T) {
	e := NewEngine()
	buildFormalProfile(t, e, "cfo@cyrenity.com")

	result := e.CompareToProfile(formalSample, "cfo@cyrenity.com")

	assert.True(t, result.HasProfile)
	assert.Equal(t, 1.0, result.Similarity)
	assert.Equal(t, 0.0, result.DeviationScore)
	assert.Equal(t, "LOW", result.RiskLevel)
	assert.Empty(t, result.Deviations)
}

func TestCompareImpersonatedStyle(t *testing.T) {
	e := NewEngine()
	buildFormalProfile(t, e, "cfo@cyrenity.com")

	result := e.CompareToProfile(pressuredSample, "cfo@cyrenity.com")

	assert.True(t, result.HasProfile)
	assert.Greater(t, result.DeviationScore, 0.3)
	assert.Less(t, result.Similarity, 0.5)

	joined := fmt.Sprint(result.Deviations)
	assert.Contains(t, joined, "URGENCY_SPIKE")
	assert.Contains(t, joined, "EXCLAMATION USAGE")
}

func TestCompareUnparseableText(t *testing.T) {
	e := NewEngine()
	buildFormalProfile(t, e, "cfo@cyrenity.com")

	result := e.CompareToProfile("12345 $$$", "cfo@cyrenity.com")
	assert.Equal(t, 0.5, result.Similarity)
	assert.Equal(t, "Text too short to analyze", result.Message)
}

func TestProfileAveragesSamples(t *testing.T) {
	e := NewEngine()
	p := buildFormalProfile(t, e, "cfo@cyrenity.com")

	f, ok := ExtractFeatures(formalSample)
	require.True(t, ok)

	// Ten identical samples average back to the sample itself.
	assert.InDelta(t, f.AvgWordLength, p.AvgWordLength, 1e-9)
	assert.InDelta(t, f.CommaRate, p.CommaRate, 1e-9)
	assert.Equal(t, 10, p.SampleCount)
}
