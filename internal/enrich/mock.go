package enrich

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/swenlabs/newswire/internal/news"
)

var mockSentiments = []news.Sentiment{news.SentimentPositive, news.SentimentNeutral, news.SentimentNegative}
var mockTrends = []news.Trend{news.TrendRising, news.TrendStable, news.TrendDeclining, news.TrendViral}

// Mock is a deterministic offline enrichment variant: the same (title, body)
// always yields the same result, and no I/O is performed. Used for tests and
// for running the pipeline without provider credentials.
type Mock struct{}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Enrich(_ context.Context, title, body string) (news.Enrichment, error) {
	h := fnv.New64a()
	h.Write([]byte(title))
	h.Write([]byte{0})
	h.Write([]byte(body))
	seed := h.Sum64()

	e := news.Enrichment{
		Summary:         firstWords(body, 30) + "...",
		Tags:            mockTags(title),
		RelevanceScore:  0.50 + float64(seed%50)/100,
		SocialSentiment: mockSentiments[seed%3],
		SearchTrend:     mockTrends[(seed/3)%4],
		KeyEntities:     capitalizedWords(title, 5),
		ImageQuery:      truncate(title, 50),
		VideoQuery:      truncate(title, 50),
	}
	return conform(e), nil
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

func mockTags(title string) []string {
	var tags []string
	for _, w := range strings.Fields(title) {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if len(w) < 4 {
			continue
		}
		tags = append(tags, "#"+strings.ToUpper(w[:1])+strings.ToLower(w[1:]))
		if len(tags) == 3 {
			break
		}
	}
	return tags
}

func capitalizedWords(s string, limit int) []string {
	var out []string
	for _, w := range strings.Fields(s) {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if w == "" {
			continue
		}
		r := []rune(w)
		if unicode.IsUpper(r[0]) && len(r) > 1 {
			out = append(out, w)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
