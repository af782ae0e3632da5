package book

import (
	"fmt"

	"bookexchange/internal/platform/validation"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Fields is a decoded JSON object whose values are parsed lazily so that type
// mismatches can be reported per field.
type Fields map[string]jsoniter.RawMessage

func isNull(raw jsoniter.RawMessage) bool {
	return string(raw) == "null"
}

func stringField(fields Fields, name string, errs *[]validation.FieldError) *string {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		*errs = append(*errs, validation.FieldError{Field: name, Message: fmt.Sprintf("%s must be a string", name)})
		return nil
	}
	return &s
}

// ParsePatch converts decoded request fields into a Patch. Unknown fields and
// store-managed fields (id, createdAt, updatedAt) are ignored. Values of the
// wrong JSON type are reported as validation errors.
func ParsePatch(fields Fields) (Patch, error) {
	var (
		p    Patch
		errs []validation.FieldError
	)

	p.Title = stringField(fields, "title", &errs)
	p.Author = stringField(fields, "author", &errs)
	p.Genre = stringField(fields, "genre", &errs)
	p.OwnerID = stringField(fields, "ownerId", &errs)

	if raw, ok := fields["publishedYear"]; ok {
		if isNull(raw) {
			p.ClearPublishedYear = true
		} else {
			var year int
			if err := json.Unmarshal(raw, &year); err != nil {
				errs = append(errs, validation.FieldError{Field: "publishedYear", Message: "publishedYear must be an integer"})
			} else {
				p.PublishedYear = &year
			}
		}
	}

	if raw, ok := fields["isAvailable"]; ok && !isNull(raw) {
		var available bool
		if err := json.Unmarshal(raw, &available); err != nil {
			errs = append(errs, validation.FieldError{Field: "isAvailable", Message: "isAvailable must be a boolean"})
		} else {
			p.IsAvailable = &available
		}
	}

	if len(errs) > 0 {
		return Patch{}, validation.New(errs...)
	}
	return p, nil
}

// ParseIDs reads the "ids" array of a by-ids request.
func ParseIDs(fields Fields) ([]string, error) {
	raw, ok := fields["ids"]
	if !ok || isNull(raw) {
		return nil, validation.New(validation.FieldError{Field: "ids", Message: "ids is required"})
	}

	var items []jsoniter.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, validation.New(validation.FieldError{Field: "ids", Message: "ids must be an array"})
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		var id string
		if err := json.Unmarshal(item, &id); err != nil {
			return nil, validation.New(validation.FieldError{Field: "ids", Message: "ids must contain only strings"})
		}
		ids = append(ids, id)
	}
	return ids, nil
}
