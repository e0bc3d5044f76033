package transform

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mbolis/surveyforge/model"
)

// builder-only types with a close backend equivalent collapse onto it
var toBackendType = map[model.QuestionType]model.BackendType{
	model.TextInput:   model.BackendText,
	model.Email:       model.BackendEmail,
	model.Textarea:    model.BackendTextarea,
	model.Radio:       model.BackendRadio,
	model.Checkbox:    model.BackendCheckbox,
	model.Rating:      model.BackendRating,
	model.Dropdown:    model.BackendSelect,
	model.Date:        model.BackendDate,
	model.Number:      model.BackendNumber,
	model.Phone:       model.BackendText,
	model.MultiSelect: model.BackendCheckbox,
	model.Likert:      model.BackendRadio,
	model.StarRating:  model.BackendRating,
	model.NPS:         model.BackendRating,
	model.Slider:      model.BackendNumber,
	model.TimePicker:  model.BackendText,
}

var toFrontendType = map[model.BackendType]model.QuestionType{
	model.BackendText:     model.TextInput,
	model.BackendEmail:    model.Email,
	model.BackendTextarea: model.Textarea,
	model.BackendRadio:    model.Radio,
	model.BackendCheckbox: model.Checkbox,
	model.BackendRating:   model.Rating,
	model.BackendSelect:   model.Dropdown,
	model.BackendDate:     model.Date,
	model.BackendNumber:   model.Number,
}

// BackendType maps a builder type to the backend enumeration. ok is false
// for types the backend cannot store at all.
func BackendType(t model.QuestionType) (bt model.BackendType, ok bool) {
	if bt, ok = toBackendType[t]; ok {
		return bt, true
	}
	if bt = model.BackendType(t); bt.Valid() {
		return bt, true
	}
	return "", false
}

func FrontendType(t model.BackendType) model.QuestionType {
	if ft, ok := toFrontendType[t]; ok {
		return ft
	}
	return model.QuestionType(t)
}

var icons = map[model.QuestionType]string{
	model.TextInput:      "Type",
	model.Email:          "Mail",
	model.Textarea:       "FileText",
	model.Radio:          "Circle",
	model.Checkbox:       "CheckSquare",
	model.Rating:         "Star",
	model.Dropdown:       "ChevronDown",
	model.Date:           "Calendar",
	model.Number:         "Hash",
	model.Phone:          "Phone",
	model.MatrixSingle:   "Grid3X3",
	model.MatrixMultiple: "Grid3X3",
	model.Likert:         "BarChart3",
	model.StarRating:     "Star",
	model.MultiSelect:    "ListChecks",
	model.FileUpload:     "Upload",
	model.Signature:      "PenTool",
	model.Location:       "MapPin",
	model.Ranking:        "ArrowUpDown",
	model.Slider:         "SlidersHorizontal",
	model.NPS:            "Gauge",
	model.TimePicker:     "Clock",
}

func Icon(t model.QuestionType) string {
	if icon, ok := icons[t]; ok {
		return icon
	}
	return "HelpCircle"
}

var reNoIdent = regexp.MustCompile(`\W+`)

// names hands out field names derived from question titles, suffixing
// repeats with "__<n>".
type names map[string]int

func (n names) derive(title string) string {
	name := strings.ToLower(title)
	name = reNoIdent.ReplaceAllLiteralString(name, " ")
	name = strings.Join(strings.Fields(name), "_")
	if name == "" {
		name = "question"
	}

	seen := n[name]
	n[name] = seen + 1
	if seen > 0 {
		name = fmt.Sprintf("%s__%d", name, seen)
	}
	return name
}
