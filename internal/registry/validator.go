package registry

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidLibraries maps accepted library identifiers to display names.
var ValidLibraries = map[string]string{
	"transformers":          "Transformers",
	"diffusers":             "Diffusers",
	"sentence-transformers": "Sentence Transformers",
	"timm":                  "TIMM",
}

// ValidTaskTypes maps accepted task identifiers to display names.
var ValidTaskTypes = map[string]string{
	"text-classification":  "Text Classification",
	"text-generation":      "Text Generation",
	"question-answering":   "Question Answering",
	"summarization":        "Summarization",
	"translation":          "Translation",
	"image-classification": "Image Classification",
	"object-detection":     "Object Detection",
	"text-to-image":        "Text to Image",
	"image-to-text":        "Image to Text",
}

var modelNamePattern = regexp.MustCompile(`^[a-zA-Z0-9\-_/]+$`)

// Validator checks model descriptors against the structural rules on the
// Model struct tags plus the hub naming and catalog rules. Failures from
// the last Validate call are retained for reporting.
type Validator struct {
	structural *validator.Validate
	errors     []string
}

// NewValidator creates a model validator.
func NewValidator() *Validator {
	return &Validator{structural: validator.New()}
}

// Validate reports whether the model passes all checks. Failure details
// are available from Errors until the next call.
func (v *Validator) Validate(m *Model) bool {
	v.errors = v.errors[:0]

	if err := v.structural.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				v.errors = append(v.errors, structuralMessage(fe))
			}
		} else {
			v.errors = append(v.errors, err.Error())
		}
	}

	if m.Name != "" && !validName(m.Name) {
		v.errors = append(v.errors, fmt.Sprintf("Invalid model name: %s", m.Name))
	}
	if m.TaskType != "" {
		if _, ok := ValidTaskTypes[strings.ToLower(m.TaskType)]; !ok {
			v.errors = append(v.errors, fmt.Sprintf("Invalid task type: %s", m.TaskType))
		}
	}
	if m.Library != "" {
		if _, ok := ValidLibraries[strings.ToLower(m.Library)]; !ok {
			v.errors = append(v.errors, fmt.Sprintf("Invalid library: %s", m.Library))
		}
	}

	return len(v.errors) == 0
}

// Errors returns a copy of the failure messages from the last Validate.
func (v *Validator) Errors() []string {
	out := make([]string, len(v.errors))
	copy(out, v.errors)
	return out
}

func validName(name string) bool {
	return len(name) <= 100 && modelNamePattern.MatchString(name)
}

func structuralMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Missing required field: %s", field)
	case "max":
		return fmt.Sprintf("Invalid model name: exceeds %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("Invalid size: %v", fe.Value())
	case "gte":
		return fmt.Sprintf("Invalid downloads count: %v", fe.Value())
	default:
		return fmt.Sprintf("Invalid %s: %v", field, fe.Value())
	}
}
