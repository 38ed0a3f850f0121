package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json field names so messages match what the client sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// BadRequestError is returned by DecodeJSON when the body is malformed or fails
// struct validation. Its message is safe to show to clients.
type BadRequestError struct {
	Msg string
}

func (e *BadRequestError) Error() string { return e.Msg }

// DecodeJSON decodes the request body into dst and runs `validate` struct tags.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &BadRequestError{Msg: "request body too large"}
		}
		return &BadRequestError{Msg: "invalid json body"}
	}
	if err := Validate(dst); err != nil {
		return err
	}
	return nil
}

func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &BadRequestError{Msg: "invalid request"}
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return &BadRequestError{Msg: fmt.Sprintf("%s is required", fe.Field())}
	case "oneof":
		return &BadRequestError{Msg: fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())}
	case "max":
		return &BadRequestError{Msg: fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())}
	default:
		return &BadRequestError{Msg: fmt.Sprintf("%s is invalid", fe.Field())}
	}
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// WriteError writes {"error": msg} plus any extra fields.
func WriteError(w http.ResponseWriter, status int, msg string, extra ...map[string]any) {
	body := map[string]any{"error": msg}
	for _, m := range extra {
		for k, v := range m {
			body[k] = v
		}
	}
	WriteJSON(w, status, body)
}
