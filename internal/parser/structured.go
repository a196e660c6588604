package parser

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StructuredDataType identifies the type of structured data.
type StructuredDataType string

const (
	JSONLD    StructuredDataType = "json-ld"
	OpenGraph StructuredDataType = "opengraph"
	MetaTags  StructuredDataType = "meta"
)

// StructuredData represents extracted structured data from a page.
type StructuredData struct {
	Type StructuredDataType `json:"type"`
	Data map[string]any     `json:"data"`
}

// organizationTypes are the schema.org types that describe a company.
var organizationTypes = map[string]bool{
	"Organization": true, "Corporation": true, "LocalBusiness": true,
	"OnlineBusiness": true, "OnlineStore": true, "NGO": true,
	"EducationalOrganization": true, "MedicalOrganization": true,
	"SportsOrganization": true, "WebSite": true,
}

// StructuredDataExtractor pulls JSON-LD, OpenGraph and meta tags out of a
// page. The seed page's facts are handed to the profile prompt as hints.
type StructuredDataExtractor struct {
	logger *slog.Logger
}

// NewStructuredDataExtractor creates a new structured data extractor.
func NewStructuredDataExtractor(logger *slog.Logger) *StructuredDataExtractor {
	return &StructuredDataExtractor{
		logger: logger.With("component", "structured_data"),
	}
}

// Extract finds and parses all structured data in body.
func (sde *StructuredDataExtractor) Extract(body []byte) ([]StructuredData, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	results := sde.extractJSONLD(doc)

	if og := sde.extractOpenGraph(doc); len(og.Data) > 0 {
		results = append(results, og)
	}
	if meta := sde.extractMetaTags(doc); len(meta.Data) > 0 {
		results = append(results, meta)
	}

	return results, nil
}

// Facts reduces body's structured data to flat site facts: name,
// description, url, industry, founded, title.
func (sde *StructuredDataExtractor) Facts(body []byte) map[string]string {
	results, err := sde.Extract(body)
	if err != nil {
		sde.logger.Debug("structured data unavailable", "error", err)
		return nil
	}

	facts := make(map[string]string)
	set := func(key string, v any) {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" && facts[key] == "" {
			facts[key] = strings.TrimSpace(s)
		}
	}

	for _, sd := range results {
		switch sd.Type {
		case JSONLD:
			if !isOrganization(sd.Data["@type"]) {
				continue
			}
			set("name", sd.Data["name"])
			set("description", sd.Data["description"])
			set("url", sd.Data["url"])
			set("industry", sd.Data["industry"])
			set("founded", sd.Data["foundingDate"])
		case OpenGraph:
			set("name", sd.Data["site_name"])
			set("description", sd.Data["description"])
		case MetaTags:
			set("description", sd.Data["description"])
			set("title", sd.Data["title"])
		}
	}

	if len(facts) == 0 {
		return nil
	}
	return facts
}

func isOrganization(t any) bool {
	switch v := t.(type) {
	case string:
		return organizationTypes[v]
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok && organizationTypes[s] {
				return true
			}
		}
	}
	return false
}

// extractJSONLD parses <script type="application/ld+json"> elements,
// flattening arrays and @graph containers.
func (sde *StructuredDataExtractor) extractJSONLD(doc *goquery.Document) []StructuredData {
	var results []StructuredData

	add := func(d map[string]any) {
		if graph, ok := d["@graph"].([]any); ok {
			for _, g := range graph {
				if m, ok := g.(map[string]any); ok {
					results = append(results, StructuredData{Type: JSONLD, Data: m})
				}
			}
			return
		}
		results = append(results, StructuredData{Type: JSONLD, Data: d})
	}

	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}

		var data map[string]any
		if err := json.Unmarshal([]byte(raw), &data); err == nil {
			add(data)
			return
		}

		var dataArr []map[string]any
		if err := json.Unmarshal([]byte(raw), &dataArr); err == nil {
			for _, d := range dataArr {
				add(d)
			}
			return
		}

		sde.logger.Debug("invalid JSON-LD block", "index", i)
	})

	return results
}

// extractOpenGraph parses og: meta tags.
func (sde *StructuredDataExtractor) extractOpenGraph(doc *goquery.Document) StructuredData {
	data := make(map[string]any)

	doc.Find(`meta[property^="og:"]`).Each(func(i int, sel *goquery.Selection) {
		property, _ := sel.Attr("property")
		content, _ := sel.Attr("content")
		if property != "" && content != "" {
			data[strings.TrimPrefix(property, "og:")] = content
		}
	})

	return StructuredData{Type: OpenGraph, Data: data}
}

// extractMetaTags parses the title and descriptive meta tags.
func (sde *StructuredDataExtractor) extractMetaTags(doc *goquery.Document) StructuredData {
	data := make(map[string]any)

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		data["title"] = title
	}

	for _, name := range []string{"description", "keywords", "author", "application-name"} {
		content, exists := doc.Find(`meta[name="` + name + `"]`).Attr("content")
		if exists && content != "" {
			data[name] = content
		}
	}

	if canonical, exists := doc.Find(`link[rel="canonical"]`).Attr("href"); exists && canonical != "" {
		data["canonical"] = canonical
	}

	return StructuredData{Type: MetaTags, Data: data}
}
