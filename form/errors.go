package form

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

// ErrBusy is returned when Submit is called while a submission or an attached handshake runs
var ErrBusy = errors.New("form busy")

// FieldErrors maps a field name to its messages
type FieldErrors map[string][]string

// Add appends a message for the field
func (e FieldErrors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Clone returns a deep copy; nil stays nil
func (e FieldErrors) Clone() FieldErrors {
	if e == nil {
		return nil
	}
	ret := make(FieldErrors, len(e))
	for field, messages := range e {
		ret[field] = append([]string(nil), messages...)
	}
	return ret
}

// Fields returns the sorted names of fields with errors
func (e FieldErrors) Fields() []string {
	ret := make([]string, 0, len(e))
	for field := range e {
		ret = append(ret, field)
	}
	sort.Strings(ret)
	return ret
}

// Envelope is the server response shape shared by submit and exchange endpoints
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Errors  FieldErrors `json:"errors,omitempty"`
}

// Err returns a *ServerError for a rejected envelope, nil otherwise
func (e *Envelope) Err() error {
	if e == nil || e.Success {
		return nil
	}
	return &ServerError{Message: e.Message, Errors: e.Errors.Clone()}
}

// ServerError is a structured rejection carrying field errors and/or a message
type ServerError struct {
	Message string
	Errors  FieldErrors
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Errors) == 0 {
		return "request rejected"
	}
	return "invalid fields: " + strings.Join(e.Errors.Fields(), ", ")
}

// DecodeError decodes an error payload; nil is returned when data carries no envelope fields
func DecodeError(data []byte) error {
	envelope := &Envelope{}
	if err := json.Unmarshal(data, envelope); err != nil {
		return nil
	}
	if envelope.Message == "" && len(envelope.Errors) == 0 {
		return nil
	}
	return &ServerError{Message: envelope.Message, Errors: envelope.Errors}
}
