package extract

import (
	"net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

// markdownConverter renders extracted article HTML as Markdown after
// sanitizing it.
type markdownConverter struct {
	policy *bluemonday.Policy
	conv   *converter.Converter
}

func newMarkdownConverter() *markdownConverter {
	return &markdownConverter{
		policy: bluemonday.UGCPolicy(),
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

func (m *markdownConverter) convert(articleHTML string, u *url.URL) (string, error) {
	clean := m.policy.Sanitize(articleHTML)

	var (
		md  string
		err error
	)
	if u != nil && u.Host != "" {
		md, err = m.conv.ConvertString(clean, converter.WithDomain(u.Scheme+"://"+u.Host))
	} else {
		md, err = m.conv.ConvertString(clean)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md), nil
}
