package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"google.golang.org/genai"

	"github.com/swenlabs/newswire/internal/news"
)

// Body text beyond this adds latency and tokens without improving output.
const maxPromptBodyLen = 1500

// GeminiConfig configures the live enrichment variant.
type GeminiConfig struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for tests.
	BaseURL string
}

// Gemini is the live enrichment variant. It issues a single structured-output
// request per article and parses the response into a news.Enrichment.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini API key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("gemini model is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Gemini{client: client, model: strings.TrimSpace(cfg.Model)}, nil
}

type geminiResponse struct {
	Summary             string   `json:"summary"`
	Tags                []string `json:"tags"`
	RelevanceScore      float64  `json:"relevance_score"`
	WikipediaSnippet    string   `json:"wikipedia_snippet"`
	SocialSentiment     string   `json:"social_sentiment"`
	SearchTrend         string   `json:"search_trend"`
	GeographicLocations []string `json:"geographic_locations"`
	GeoLat              *float64 `json:"geo_lat"`
	GeoLng              *float64 `json:"geo_lng"`
	KeyEntities         []string `json:"key_entities"`
	ImageQuery          string   `json:"image_query"`
	VideoQuery          string   `json:"video_query"`
}

var enrichmentSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary":              {Type: genai.TypeString},
		"tags":                 {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"relevance_score":      {Type: genai.TypeNumber},
		"wikipedia_snippet":    {Type: genai.TypeString},
		"social_sentiment":     {Type: genai.TypeString},
		"search_trend":         {Type: genai.TypeString},
		"geographic_locations": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"geo_lat":              {Type: genai.TypeNumber},
		"geo_lng":              {Type: genai.TypeNumber},
		"key_entities":         {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"image_query":          {Type: genai.TypeString},
		"video_query":          {Type: genai.TypeString},
	},
	Required: []string{
		"summary",
		"tags",
		"relevance_score",
		"social_sentiment",
		"search_trend",
		"image_query",
		"video_query",
	},
}

func (g *Gemini) Enrich(ctx context.Context, title, body string) (news.Enrichment, error) {
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(buildPrompt(title, body)),
		&genai.GenerateContentConfig{
			CandidateCount:   1,
			ResponseMIMEType: "application/json",
			ResponseSchema:   enrichmentSchema,
		},
	)
	if err != nil {
		return news.Enrichment{}, classifyErr(err)
	}

	var parsed geminiResponse
	if err := json.Unmarshal([]byte(resp.Text()), &parsed); err != nil {
		return news.Enrichment{}, fmt.Errorf("gemini: parse structured json: %w", err)
	}
	if strings.TrimSpace(parsed.Summary) == "" {
		return news.Enrichment{}, errors.New("gemini: response missing summary")
	}

	e := news.Enrichment{
		Summary:             parsed.Summary,
		Tags:                parsed.Tags,
		RelevanceScore:      parsed.RelevanceScore,
		WikipediaSnippet:    parsed.WikipediaSnippet,
		SocialSentiment:     news.Sentiment(parsed.SocialSentiment),
		SearchTrend:         news.Trend(parsed.SearchTrend),
		GeographicLocations: parsed.GeographicLocations,
		KeyEntities:         parsed.KeyEntities,
		ImageQuery:          parsed.ImageQuery,
		VideoQuery:          parsed.VideoQuery,
	}
	if parsed.GeoLat != nil && parsed.GeoLng != nil {
		e.Geo = &news.Geo{Lat: *parsed.GeoLat, Lng: *parsed.GeoLng}
	}
	return conform(e), nil
}

func buildPrompt(title, body string) string {
	if len(body) > maxPromptBodyLen {
		body = body[:maxPromptBodyLen]
	}
	return strings.TrimSpace(`
You are a news enrichment engine. Analyze the article below and return ONLY a JSON object with these keys:

- summary: 2-3 sentences capturing the article's substance
- tags: 3-5 coherent hashtags reflecting the actual content, each starting with "#"
- relevance_score: audience relevance from 0.0 to 1.0
- wikipedia_snippet: 50-100 words of factual background context; empty string if you have none
- social_sentiment: one of "positive", "negative", "neutral"
- search_trend: one of "rising", "stable", "declining", "viral"
- geographic_locations: place names mentioned in the article
- geo_lat, geo_lng: coordinates of the primary location, omit both if no location is mentioned
- key_entities: people, organizations and products central to the article
- image_query: a 3-7 word search query for finding a relevant news image; empty string if nothing suitable
- video_query: a 3-7 word search query for finding a relevant news video; empty string if nothing suitable

Do not invent URLs or placeholder values. No generic tags.

Title: ` + title + `
Content: ` + body + `
`)
}

// classifyErr wraps retryable provider failures so the retrier will back off
// and try again. Auth failures and malformed responses stay permanent.
func classifyErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Code/100 == 5 {
			return &TransientError{Err: err}
		}
		return err
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &TransientError{Err: err}
	}
	return err
}
