// Package transform maps survey documents between the builder's in-memory
// shape and the persistence schema of the REST backend.
package transform

import (
	"bytes"
	"encoding/json"

	gojson "github.com/goccy/go-json"
	"github.com/hashicorp/go-multierror"
	"github.com/mbolis/surveyforge/model"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// Warnings collects recoverable problems met during a transformation.
type Warnings []error

func (w Warnings) ErrorOrNil() error {
	var result *multierror.Error
	for _, err := range w {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

var null = []byte("null")

// ParseJSONField decodes a persisted JSON object that may also arrive as a
// JSON-encoded string. Missing values decode to an empty object. When the
// value cannot be parsed an empty object is returned along with a
// *model.MalformedFieldError.
func ParseJSONField(field string, raw json.RawMessage) (model.Object, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, null) {
		return model.Object{}, nil
	}

	data := []byte(raw)
	if raw[0] == '"' {
		var s string
		if err := gojson.Unmarshal(raw, &s); err != nil {
			return model.Object{}, malformed(field, raw, err)
		}
		data = bytes.TrimSpace([]byte(s))
		if len(data) == 0 {
			return model.Object{}, malformed(field, raw, errors.New("empty string"))
		}
	}

	var obj model.Object
	if err := gojson.Unmarshal(data, &obj); err != nil {
		return model.Object{}, malformed(field, raw, err)
	}
	if obj == nil {
		return model.Object{}, malformed(field, raw, errors.New("not an object"))
	}
	return obj, nil
}

func malformed(field string, raw []byte, err error) error {
	return &model.MalformedFieldError{Field: field, Raw: string(raw), Err: err}
}

// ParseConditionalLogic reads a conditional rule from its persisted form.
func ParseConditionalLogic(field string, raw json.RawMessage) (model.ConditionalLogic, error) {
	obj, err := ParseJSONField(field, raw)
	logic := model.ConditionalLogic{
		Enabled:   cast.ToBool(obj["enabled"]),
		DependsOn: cast.ToString(obj["dependsOn"]),
		Condition: model.Condition(cast.ToString(obj["condition"])),
		Value:     obj["value"],
	}
	if logic.Condition == "" {
		logic.Condition = model.Equals
	}
	return logic, err
}

func encodeObject(field string, obj model.Object) (json.RawMessage, error) {
	if obj == nil {
		obj = model.Object{}
	}
	data, err := gojson.Marshal(obj)
	if err != nil {
		return json.RawMessage("{}"), malformed(field, nil, err)
	}
	return data, nil
}

func encodeLogic(field string, logic model.ConditionalLogic) (json.RawMessage, error) {
	data, err := gojson.Marshal(logic)
	if err != nil {
		return json.RawMessage("{}"), malformed(field, nil, err)
	}
	return data, nil
}
