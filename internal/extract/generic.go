package extract

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// invisibleParents are elements whose direct text children are never
// shown as page content.
var invisibleParents = map[string]bool{
	"script":   true,
	"style":    true,
	"head":     true,
	"title":    true,
	"meta":     true,
	"noscript": true,
	"template": true,
	"input":    true,
	"nav":      true,
	"header":   true,
	"html":     true,
	"iframe":   true,
	"svg":      true,
}

func genericStage(body []byte, _ *url.URL) (stageOutput, error) {
	text, err := VisibleText(body)
	return stageOutput{text: text}, err
}

// VisibleText walks every text node of the markup and keeps those whose
// parent element is visible. Comments are dropped.
func VisibleText(body []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if n.Parent == nil || n.Parent.Type != html.ElementNode || !invisibleParents[n.Parent.Data] {
				if s := strings.TrimSpace(n.Data); s != "" {
					parts = append(parts, s)
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return cleanText(strings.Join(parts, " ")), nil
}

// cleanText strips tabs, collapses whitespace runs and trims.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.Join(strings.Fields(s), " ")
}
