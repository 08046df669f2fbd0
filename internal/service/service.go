// Package service implements the maintenance operations on top of the store:
// validation, work order numbering, the stock ledger, PM completion and the
// read-side projections.
package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cmms-backend/internal/parse"
	"cmms-backend/internal/store"
)

var (
	ErrInvalid  = errors.New("invalid input")
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Service holds the dependencies shared by every operation.
type Service struct {
	store    store.Store
	loc      *time.Location
	now      func() time.Time
	log      *zap.Logger
	validate *validator.Validate
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service. loc is the plant timezone that decides "today".
func New(st store.Store, loc *time.Location, log *zap.Logger, opts ...Option) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(JSONFieldName)

	s := &Service{
		store:    st,
		loc:      loc,
		now:      time.Now,
		log:      log,
		validate: v,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location is the plant timezone.
func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) today() time.Time {
	return s.now().In(s.loc)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// JSONFieldName names a struct field by its json tag, so validation messages
// use the names clients send.
func JSONFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// InvalidInput wraps a binding or validation error in ErrInvalid, with one
// message per failed field.
func InvalidInput(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return invalidf("%s", strings.Join(msgs, "; "))
	}
	return invalidf("%v", err)
}

// check runs the struct's binding rules so direct callers and imports get the
// same validation as HTTP requests.
func (s *Service) check(in any) error {
	if err := s.validate.Struct(in); err != nil {
		return InvalidInput(err)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "email":
		return field + " must be a valid email address"
	case "url":
		return field + " must be a valid URL"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// storeErr maps store and driver errors onto the service sentinels.
func storeErr(what string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s already exists", ErrConflict, what)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %s references a record that does not exist", ErrInvalid, what)
	case errors.Is(err, ErrInvalid), errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
		return err
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

func (s *Service) parseDate(field, raw string) (*time.Time, error) {
	d, err := parse.ParseDate(raw)
	if err != nil {
		return nil, invalidf("%s: %v", field, err)
	}
	return d, nil
}

// parseTimestamp reads a local plant time and returns it in UTC.
func (s *Service) parseTimestamp(field, raw string) (*time.Time, error) {
	ts, err := parse.ParseTimestamp(raw, s.loc)
	if err != nil {
		return nil, invalidf("%s: %v", field, err)
	}
	if ts != nil {
		utc := ts.UTC()
		ts = &utc
	}
	return ts, nil
}

func optString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
