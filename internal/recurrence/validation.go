package recurrence

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/Freeeeeet/reservation_series/internal/model"
	"github.com/go-playground/validator/v10"
)

const clockLayout = "15:04"

// Input параметры генерации серии
type Input struct {
	StartDate       time.Time           `json:"startingDate" validate:"required"`
	EndDate         time.Time           `json:"endingDate" validate:"required"`
	StartTime       string              `json:"startTime" validate:"required,clock"`
	EndTime         string              `json:"endTime" validate:"required,clock"`
	Weekdays        []int               `json:"repeatOnDays" validate:"min=1,dive,min=0,max=6"`
	Pattern         model.RepeatPattern `json:"repeatPattern" validate:"oneof=weekly biweekly"`
	MinimumInterval time.Duration       `json:"minimumInterval" validate:"gt=0"`
}

// Issue ошибка валидации конкретного поля
type Issue struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Validation результат проверки входных данных
type Validation struct {
	Issues []Issue `json:"issues,omitempty"`
}

// Valid возвращает true, если ошибок нет
func (v Validation) Valid() bool {
	return len(v.Issues) == 0
}

// FieldIssues возвращает ошибки по одному полю
func (v Validation) FieldIssues(field string) []Issue {
	var out []Issue
	for _, issue := range v.Issues {
		if issue.Field == field {
			out = append(out, issue)
		}
	}
	return out
}

func (v Validation) Error() string {
	parts := make([]string, 0, len(v.Issues))
	for _, issue := range v.Issues {
		parts = append(parts, issue.Field+": "+issue.Message)
	}
	return strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	if err := v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, ok := parseClock(fl.Field().String())
		return ok
	}); err != nil {
		panic("register clock validation: " + err.Error())
	}

	v.RegisterStructValidation(validateInputStruct, Input{})

	return v
}

// validateInputStruct проверяет связи между полями
func validateInputStruct(sl validator.StructLevel) {
	in := sl.Current().Interface().(Input)

	if !in.StartDate.IsZero() && !in.EndDate.IsZero() {
		if !calendarDay(in.StartDate).Before(calendarDay(in.EndDate)) {
			sl.ReportError(in.EndDate, "endingDate", "EndDate", "date_after_start", "")
		}
	}

	start, startOK := parseClock(in.StartTime)
	end, endOK := parseClock(in.EndTime)

	if startOK && endOK && end <= start {
		sl.ReportError(in.EndTime, "endTime", "EndTime", "time_after_start", "")
	}

	if in.MinimumInterval > 0 {
		if startOK && start%in.MinimumInterval != 0 {
			sl.ReportError(in.StartTime, "startTime", "StartTime", "interval", in.MinimumInterval.String())
		}
		if endOK && end%in.MinimumInterval != 0 {
			sl.ReportError(in.EndTime, "endTime", "EndTime", "interval", in.MinimumInterval.String())
		}
	}
}

// Validate проверяет входные данные и собирает ошибки по полям
func Validate(in Input) Validation {
	err := validate.Struct(in)
	if err == nil {
		return Validation{}
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Validation{Issues: []Issue{{Field: "input", Code: "invalid", Message: err.Error()}}}
	}

	issues := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, Issue{
			Field:   issueField(fe),
			Code:    fe.Tag(),
			Message: issueMessage(fe),
		})
	}
	return Validation{Issues: issues}
}

// issueField отрезает имя структуры и индекс элемента: "Input.repeatOnDays[2]" -> "repeatOnDays"
func issueField(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		ns = rest
	}
	if i := strings.IndexByte(ns, '['); i >= 0 {
		ns = ns[:i]
	}
	return ns
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "value is required"
	case "clock":
		return fmt.Sprintf("%q is not a valid HH:MM time", fe.Value())
	case "min":
		if fe.Kind() == reflect.Slice {
			return "at least one weekday must be selected"
		}
		return "weekday must be between 0 and 6"
	case "max":
		return "weekday must be between 0 and 6"
	case "oneof":
		return "repeat pattern must be weekly or biweekly"
	case "gt":
		return "minimum interval must be positive"
	case "date_after_start":
		return "end date must be after start date"
	case "time_after_start":
		return "end time must be after start time"
	case "interval":
		return fmt.Sprintf("time must be aligned to %s", fe.Param())
	default:
		return "invalid value"
	}
}

// parseClock разбирает "HH:MM" в смещение от полуночи
func parseClock(s string) (time.Duration, bool) {
	if len(s) != len(clockLayout) {
		return 0, false
	}
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, false
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, true
}

// ClockOffset возвращает смещение "HH:MM" от начала дня
func ClockOffset(s string) (time.Duration, error) {
	d, ok := parseClock(s)
	if !ok {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	return d, nil
}
