// Package profile turns a crawl corpus into a validated company profile.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/IshaanNene/sitebrief/internal/types"
)

// Employee is a person named on the company's site.
type Employee struct {
	Name     string `json:"name"               bson:"name"               validate:"required"`
	Title    string `json:"title,omitempty"    bson:"title,omitempty"`
	Position string `json:"position,omitempty" bson:"position,omitempty"`
	Location string `json:"location,omitempty" bson:"location,omitempty"`
}

// Profile is the structured company report.
type Profile struct {
	Title            string     `json:"title"                       bson:"title"                       validate:"required"`
	Summary          string     `json:"summary"                     bson:"summary"                     validate:"required"`
	CompanyName      string     `json:"company_name"                bson:"company_name"                validate:"required"`
	Industry         string     `json:"industry,omitempty"          bson:"industry,omitempty"`
	Employees        []Employee `json:"employees"                   bson:"employees"                   validate:"dive"`
	ValueProposition string     `json:"value_proposition,omitempty" bson:"value_proposition,omitempty"`
	Competition      StringList `json:"competition,omitempty"       bson:"competition,omitempty"`
}

// Report is a profile together with how it was produced.
type Report struct {
	Profile      *Profile          `json:"profile"                bson:"profile"`
	StartURL     string            `json:"start_url"              bson:"start_url"`
	PagesCrawled int               `json:"pages_crawled"          bson:"pages_crawled"`
	Strategy     string            `json:"strategy"               bson:"strategy"`
	Tokens       int               `json:"tokens"                 bson:"tokens"`
	SiteFacts    map[string]string `json:"site_facts,omitempty"   bson:"site_facts,omitempty"`
	Stats        types.CrawlStats  `json:"crawl_stats"            bson:"crawl_stats"`
	StartedAt    time.Time         `json:"started_at"             bson:"started_at"`
	FinishedAt   time.Time         `json:"finished_at"            bson:"finished_at"`
}

// StringList decodes either a JSON list or a single value into strings.
// Models describe competitors as plain names, objects, or one sentence.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = flattenStrings(raw)
	return nil
}

func flattenStrings(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
		return nil
	case []any:
		var out []string
		for _, e := range t {
			out = append(out, flattenStrings(e)...)
		}
		return out
	case map[string]any:
		for _, key := range []string{"name", "company", "company_name", "title"} {
			if s, ok := t[key].(string); ok && strings.TrimSpace(s) != "" {
				return []string{strings.TrimSpace(s)}
			}
		}
		b, _ := json.Marshal(t)
		return []string{string(b)}
	default:
		return []string{fmt.Sprint(t)}
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the required fields. Whitespace-only values count as
// missing.
func (p *Profile) Validate() error {
	p.normalize()

	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &types.ValidationError{Fields: []string{"profile"}, Err: err}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		fields = append(fields, ns)
	}
	return &types.ValidationError{Fields: fields, Err: err}
}

func (p *Profile) normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Summary = strings.TrimSpace(p.Summary)
	p.CompanyName = strings.TrimSpace(p.CompanyName)
	p.Industry = strings.TrimSpace(p.Industry)
	p.ValueProposition = strings.TrimSpace(p.ValueProposition)
	for i := range p.Employees {
		e := &p.Employees[i]
		e.Name = strings.TrimSpace(e.Name)
		e.Title = strings.TrimSpace(e.Title)
		e.Position = strings.TrimSpace(e.Position)
		e.Location = strings.TrimSpace(e.Location)
	}
	if p.Employees == nil {
		p.Employees = []Employee{}
	}
}

// Parse extracts the JSON object from an LLM response and validates it.
func Parse(response string) (*Profile, error) {
	raw := extractJSON(response)
	if raw == "" {
		return nil, &types.ValidationError{
			Fields: []string{"json"},
			Err:    fmt.Errorf("no JSON object in model output"),
		}
	}

	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, &types.ValidationError{Fields: []string{"json"}, Err: err}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// extractJSON returns the first balanced JSON object in s, or "".
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
