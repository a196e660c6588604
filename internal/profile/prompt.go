package profile

import (
	"sort"
	"strings"
)

const queryPrefix = "Please report on this company: "

const formatInstructions = "The output should be formatted as a JSON instance that conforms to the JSON schema below.\n\n" +
	"As an example, for the schema {\"properties\": {\"foo\": {\"title\": \"Foo\", \"description\": \"a list of strings\", \"type\": \"array\", \"items\": {\"type\": \"string\"}}}, \"required\": [\"foo\"]}\n" +
	"the object {\"foo\": [\"bar\", \"baz\"]} is a well-formatted instance of the schema. The object {\"properties\": {\"foo\": [\"bar\", \"baz\"]}} is not well-formatted.\n\n" +
	"Here is the output schema:\n```\n" + profileSchema + "\n```"

const profileSchema = `{"properties": {` +
	`"title": {"title": "Title", "description": "REQUIRED: The title of the website to summarize.", "type": "string"}, ` +
	`"summary": {"title": "Summary", "description": "REQUIRED: The summary of the website's content.", "type": "string"}, ` +
	`"company_name": {"title": "Company Name", "description": "REQUIRED: The name of the company.", "type": "string"}, ` +
	`"industry": {"title": "Industry", "description": "The industry that this company is in.", "type": "string"}, ` +
	`"employees": {"title": "Employees", "description": "Any employees identified in the website.", "default": [], "type": "array", "items": {"$ref": "#/definitions/Employee"}}, ` +
	`"value_proposition": {"title": "Value Proposition", "description": "The value proposition of the company.", "type": "string"}, ` +
	`"competition": {"title": "Competition", "description": "Competing firms to the company.", "type": "array", "items": {"type": "string"}}}, ` +
	`"required": ["title", "summary", "company_name"], ` +
	`"definitions": {"Employee": {"title": "Employee", "type": "object", "properties": {` +
	`"name": {"title": "Name", "description": "REQUIRED: The name of the person.", "type": "string"}, ` +
	`"title": {"title": "Title", "description": "The title of the person.", "type": "string"}, ` +
	`"position": {"title": "Position", "description": "The position of the person.", "type": "string"}, ` +
	`"location": {"title": "Location", "description": "The location of the person.", "type": "string"}}, ` +
	`"required": ["name"]}}}`

// buildPrompt renders the single formatting request sent to the model.
func buildPrompt(summary string, facts map[string]string) string {
	var q strings.Builder
	q.WriteString(queryPrefix)
	q.WriteString(summary)

	if len(facts) > 0 {
		keys := make([]string, 0, len(facts))
		for k := range facts {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		q.WriteString("\n\nFacts published by the site itself:")
		for _, k := range keys {
			q.WriteString("\n- ")
			q.WriteString(k)
			q.WriteString(": ")
			q.WriteString(facts[k])
		}
	}

	return "Answer the user query.\n" + formatInstructions + "\n" + q.String() + "\n"
}
