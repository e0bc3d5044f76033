package model

import "github.com/pkg/errors"

// QuestionType is the closed set of builder question tags.
type QuestionType string

const (
	TextInput      QuestionType = "text-input"
	Email          QuestionType = "email"
	Textarea       QuestionType = "textarea"
	Radio          QuestionType = "radio"
	Checkbox       QuestionType = "checkbox"
	Rating         QuestionType = "rating"
	Dropdown       QuestionType = "dropdown"
	Date           QuestionType = "date"
	Number         QuestionType = "number"
	Phone          QuestionType = "phone"
	MatrixSingle   QuestionType = "matrix-single"
	MatrixMultiple QuestionType = "matrix-multiple"
	Likert         QuestionType = "likert"
	StarRating     QuestionType = "star-rating"
	MultiSelect    QuestionType = "multi-select"
	FileUpload     QuestionType = "file-upload"
	Signature      QuestionType = "signature"
	Location       QuestionType = "location"
	Ranking        QuestionType = "ranking"
	Slider         QuestionType = "slider"
	NPS            QuestionType = "nps"
	TimePicker     QuestionType = "time-picker"
)

var QuestionTypes = []QuestionType{
	TextInput, Email, Textarea, Radio, Checkbox, Rating, Dropdown, Date,
	Number, Phone, MatrixSingle, MatrixMultiple, Likert, StarRating,
	MultiSelect, FileUpload, Signature, Location, Ranking, Slider, NPS,
	TimePicker,
}

var displayNames = map[QuestionType]string{
	TextInput:      "Text Input",
	Email:          "Email",
	Textarea:       "Text Area",
	Radio:          "Multiple Choice",
	Checkbox:       "Checkboxes",
	Rating:         "Rating",
	Dropdown:       "Dropdown",
	Date:           "Date",
	Number:         "Number",
	Phone:          "Phone",
	MatrixSingle:   "Matrix (Single)",
	MatrixMultiple: "Matrix (Multiple)",
	Likert:         "Likert Scale",
	StarRating:     "Star Rating",
	MultiSelect:    "Multi Select",
	FileUpload:     "File Upload",
	Signature:      "Signature",
	Location:       "Location",
	Ranking:        "Ranking",
	Slider:         "Slider",
	NPS:            "Net Promoter Score",
	TimePicker:     "Time",
}

func ParseQuestionType(s string) (QuestionType, error) {
	t := QuestionType(s)
	if !t.Valid() {
		return "", errors.Wrapf(ErrNotFound, "question type %q", s)
	}
	return t, nil
}

func (t QuestionType) Valid() bool {
	_, ok := displayNames[t]
	return ok
}

func (t QuestionType) DisplayName() string {
	if name, ok := displayNames[t]; ok {
		return name
	}
	return string(t)
}

// IsChoice reports whether the type picks among Options and therefore needs
// at least two of them.
func (t QuestionType) IsChoice() bool {
	switch t {
	case Radio, Checkbox, Dropdown, MultiSelect, Ranking, Likert:
		return true
	}
	return false
}

// IsMulti reports whether the answer is a list of values.
func (t QuestionType) IsMulti() bool {
	switch t {
	case Checkbox, MultiSelect, Ranking:
		return true
	}
	return false
}

// BackendType is the smaller enumeration accepted by the persistence API.
type BackendType string

const (
	BackendText     BackendType = "text"
	BackendEmail    BackendType = "email"
	BackendTextarea BackendType = "textarea"
	BackendRadio    BackendType = "radio"
	BackendCheckbox BackendType = "checkbox"
	BackendRating   BackendType = "rating"
	BackendSelect   BackendType = "select"
	BackendDate     BackendType = "date"
	BackendNumber   BackendType = "number"
)

func (t BackendType) Valid() bool {
	switch t {
	case BackendText, BackendEmail, BackendTextarea, BackendRadio, BackendCheckbox,
		BackendRating, BackendSelect, BackendDate, BackendNumber:
		return true
	}
	return false
}
