package summarize

import "strings"

// RawDataPrefix frames a corpus that is passed to the profile builder
// without summarization.
const RawDataPrefix = "This is the raw data of the company, based on their website"

// NothingToSummarize is the text of a skipped summarization.
const NothingToSummarize = "No text to summarize"

const mapPrompt = `
Summarize the following text in a clear and concise way:
TEXT:` + "`{text}`" + `
Brief Summary:
`

const combinePrompt = `
Generate a summary of the following text that includes the following elements in json format:

* A title that accurately reflects the content of the text.
* The summary of the website's content in string.
* The company_name in string
* The industry that this company is in
* extract list of all employee like team member ,directors,advisors details about there names ,position, make sure you are not summarize the members and not generate AI employee list.
* The value preposition of the company
* Information about competing firms may include details about their products, pricing strategies,  market share, customer base, marketing approaches, and any other factors that impact their competitiveness in the industry
Text:` + "`{text}`" + `
`

const refineInitialPrompt = `Write a concise summary of the following:


"{text}"


CONCISE SUMMARY:`

const refinePrompt = `Your job is to produce a final summary
We have provided an existing summary up to a certain point: {existing_answer}
We have the opportunity to refine the existing summary(only if needed) with some more context below.
------------
{text}
------------
Given the new context, refine the original summary
If the context isn't useful, return the original summary.`

func render(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
