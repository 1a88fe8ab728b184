package server

import (
	"fmt"
	"slices"

	"github.com/xeipuuv/gojsonschema"
)

const rootField = "(root)"

const movieProperties = `{
	"title":     {"type": "string", "minLength": 1},
	"year":      {"type": "integer"},
	"studios":   {"type": "string"},
	"producers": {"type": "array", "items": {"type": "string"}},
	"winner":    {"type": "boolean"}
}`

var (
	insertMovieSchema = mustSchema(`{
	"type": "object",
	"required": ["title", "year", "studios", "producers"],
	"additionalProperties": false,
	"properties": ` + movieProperties + `
}`)

	updateMovieSchema = mustSchema(`{
	"type": "object",
	"additionalProperties": false,
	"properties": ` + movieProperties + `
}`)
)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("server: invalid schema: %v", err))
	}
	return schema
}

// validate checks body against schema and returns the first violation message, or "" if the
// body is valid.
func validate(schema *gojsonschema.Schema, body []byte) (string, error) {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return "", err
	}
	if result.Valid() {
		return "", nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		msgs = append(msgs, violation(re))
	}
	slices.Sort(msgs)
	return msgs[0], nil
}

func violation(re gojsonschema.ResultError) string {
	if re.Field() == rootField {
		return re.Description()
	}
	return fmt.Sprintf("%s: %s", re.Field(), re.Description())
}
