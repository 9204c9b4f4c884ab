package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"careshare/internal/appointments"
	"careshare/internal/calls"
	"careshare/internal/personalization"
	"careshare/internal/skills"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// flexInt accepts a JSON number or a numeric string. Agents send ids both
// ways.
type flexInt int64

func (n *flexInt) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	if bytes.Equal(raw, []byte("null")) {
		return nil
	}
	s := string(raw)
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		*n = flexInt(v)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return fmt.Errorf("expected an integer, got %s", string(raw))
	}
	*n = flexInt(int64(f))
	return nil
}

func (n flexInt) int64() int64 { return int64(n) }

func (n *flexInt) ptr() *int64 {
	if n == nil {
		return nil
	}
	v := int64(*n)
	return &v
}

// fieldIssue is one entry of an INVALID_BODY details list.
type fieldIssue struct {
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// invalidBody carries the issues found while binding a request body.
type invalidBody struct {
	Issues []fieldIssue
}

func (e *invalidBody) Error() string { return "invalid request body" }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	must(v.RegisterValidation("skill", func(fl validator.FieldLevel) bool {
		return skills.Valid(fl.Field().String())
	}))
	must(v.RegisterValidation("outcome", func(fl validator.FieldLevel) bool {
		return calls.Outcome(fl.Field().String()).Loggable()
	}))
	must(v.RegisterValidation("appointment_status", func(fl validator.FieldLevel) bool {
		return appointments.Status(fl.Field().String()).Valid()
	}))
	must(v.RegisterValidation("mode", func(fl validator.FieldLevel) bool {
		return personalization.Mode(fl.Field().String()).Valid()
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// decodeBody unmarshals raw into dst and validates it. An empty body is
// treated as {} so optional-only schemas accept it.
func decodeBody(raw []byte, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &invalidBody{Issues: []fieldIssue{decodeIssue(err)}}
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		issues := make([]fieldIssue, 0, len(verrs))
		for _, fe := range verrs {
			issues = append(issues, fieldIssue{
				Field:   fe.Field(),
				Rule:    fe.Tag(),
				Message: issueMessage(fe),
			})
		}
		return &invalidBody{Issues: issues}
	}
	return nil
}

// bindJSON reads the request body and hands it to decodeBody.
func bindJSON(c *gin.Context, dst any) error {
	raw, err := c.GetRawData()
	if err != nil {
		return &invalidBody{Issues: []fieldIssue{{Rule: "read", Message: err.Error()}}}
	}
	return decodeBody(raw, dst)
}

func decodeIssue(err error) fieldIssue {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fieldIssue{Field: typeErr.Field, Rule: "type", Message: "expected " + typeErr.Type.String()}
	}
	return fieldIssue{Rule: "json", Message: err.Error()}
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "skill":
		return "must be one of: " + strings.Join(skills.All, ", ")
	case "outcome":
		return "must be one of: ACCEPTED, DECLINED, NO_ANSWER, VOICEMAIL"
	case "appointment_status":
		return "must be a known appointment status"
	case "mode":
		return "must be INBOUND, VOLUNTEER_OUTBOUND or SENIOR_CALLBACK"
	default:
		return "failed " + fe.Tag()
	}
}
