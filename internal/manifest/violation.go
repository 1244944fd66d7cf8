package manifest

import "fmt"

// Violation is one schema problem found while building the entity graph.
type Violation struct {
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
}

// ValidationError aggregates all violations found during a build. Schema
// errors are fatal at initialization time, never request-time conditions.
type ValidationError []*Violation

func (e ValidationError) Error() string {
	msg := "violations found:\n"
	for _, v := range e {
		line := "- " + v.Message
		if v.File != "" {
			line += " (" + v.File + ")"
		}
		msg += line + "\n"
	}
	return msg
}

func violationf(file string, format string, args ...any) *Violation {
	return &Violation{Message: fmt.Sprintf(format, args...), File: file}
}
