package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	msgRequired       = "This field is required."
	msgBlank          = "This field may not be blank."
	msgInvalidInteger = "A valid integer is required."
	msgInvalidNumber  = "A valid number is required."
	msgInvalidString  = "Not a valid string."
	msgInvalidList    = "Expected a list of items."
	msgInvalidGenre   = "Incorrect type. Expected pk value or {id, name} object."
	msgDuplicateID    = "movie with this id already exists."
	msgInvalidBody    = "Invalid data. Expected a dictionary."
)

// MovieInput is the payload accepted by AddMovie. Pointer fields tell a
// missing value apart from a zero value.
type MovieInput struct {
	ID         *int       `json:"id" validate:"required"`
	Title      *string    `json:"title" validate:"required,min=1,max=200"`
	Budget     *int64     `json:"budget" validate:"required"`
	Homepage   *string    `json:"homepage" validate:"required,min=1,max=200"`
	Overview   *string    `json:"overview" validate:"required,min=1"`
	Popularity *float64   `json:"popularity" validate:"required"`
	Genres     []GenreRef `json:"genres"`
}

// GenreRef references an existing genre either by bare id (`18`) or by an
// inline object (`{"id": 18, "name": "Drama"}`). Only the id is used.
type GenreRef struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

func (g *GenreRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("genre reference is null")
	}
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			ID   *int   `json:"id"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		if obj.ID == nil {
			return fmt.Errorf("genre object without id")
		}
		g.ID, g.Name = *obj.ID, obj.Name
		return nil
	}

	var id int
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	g.ID = id
	return nil
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// DecodeMovieInput decodes a JSON movie payload field by field and validates
// it, so type errors and missing fields are reported together.
func DecodeMovieInput(body []byte) (*MovieInput, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		verr := NewValidationError()
		verr.Add("non_field_errors", msgInvalidBody)
		return nil, verr
	}

	in := &MovieInput{}
	verr := NewValidationError()

	if value, ok := raw["id"]; ok {
		id, valid := decodeInteger(value, math.MinInt, math.MaxInt)
		if !valid {
			verr.Add("id", msgInvalidInteger)
		} else if id != nil {
			v := int(*id)
			in.ID = &v
		}
	}
	if value, ok := raw["budget"]; ok {
		budget, valid := decodeInteger(value, math.MinInt64, math.MaxInt64)
		if !valid {
			verr.Add("budget", msgInvalidInteger)
		}
		in.Budget = budget
	}

	fields := []struct {
		name    string
		target  interface{}
		message string
	}{
		{"title", &in.Title, msgInvalidString},
		{"homepage", &in.Homepage, msgInvalidString},
		{"overview", &in.Overview, msgInvalidString},
		{"popularity", &in.Popularity, msgInvalidNumber},
	}
	for _, f := range fields {
		value, ok := raw[f.name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, f.target); err != nil {
			verr.Add(f.name, f.message)
		}
	}

	if value, ok := raw["genres"]; ok {
		decodeGenres(value, in, verr)
	}

	// a field that failed to decode is nil here; keep its type error only
	if missing := in.Validate(); missing != nil {
		for name, messages := range missing.Fields {
			if _, seen := verr.Fields[name]; !seen {
				verr.Fields[name] = messages
			}
		}
	}

	if verr.HasErrors() {
		return in, verr
	}
	return in, nil
}

// decodeInteger accepts JSON numbers, and numeric strings, holding a whole
// value within [lo, hi]: 7, 7.0 and "7" all decode to 7. null decodes to nil.
func decodeInteger(value json.RawMessage, lo, hi int64) (*int64, bool) {
	if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
		return nil, true
	}

	var n json.Number
	if err := json.Unmarshal(value, &n); err != nil || n == "" {
		return nil, false
	}

	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		if i < lo || i > hi {
			return nil, false
		}
		return &i, true
	}

	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil || f != math.Trunc(f) || f < float64(lo) || f >= float64(hi) {
		return nil, false
	}
	i := int64(f)
	return &i, true
}

func decodeGenres(value json.RawMessage, in *MovieInput, verr *ValidationError) {
	var items []json.RawMessage
	if err := json.Unmarshal(value, &items); err != nil {
		verr.Add("genres", msgInvalidList)
		return
	}

	in.Genres = make([]GenreRef, 0, len(items))
	for _, item := range items {
		var ref GenreRef
		if err := json.Unmarshal(item, &ref); err != nil {
			verr.Add("genres", msgInvalidGenre)
			continue
		}
		in.Genres = append(in.Genres, ref)
	}
}

// Validate checks required fields and length limits.
func (in *MovieInput) Validate() *ValidationError {
	verr := NewValidationError()

	err := getValidator().Struct(in)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		verr.Add("non_field_errors", err.Error())
		return verr
	}

	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), fieldMessage(fe))
	}
	return verr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "min":
		return msgBlank
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	default:
		return fmt.Sprintf("Failed on %s validation.", fe.Tag())
	}
}
