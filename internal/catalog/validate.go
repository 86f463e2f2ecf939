package catalog

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrMalformedInput marks records whose shape violates the catalogue contract.
// It is the only error the evaluation core surfaces for bad data; missing
// values are never errors.
var ErrMalformedInput = errors.New("malformed input")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("tier", func(fl validator.FieldLevel) bool {
			return Tier(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("outcome", func(fl validator.FieldLevel) bool {
			return OutcomeLabel(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
			return isFinite(fl.Field().Float())
		})
		validate = v
	})
	return validate
}

// Validate checks an entity at the point it enters the core.
func Validate(e Entity) error {
	if err := validatorInstance().Struct(e); err != nil {
		return malformed(e.ID, err)
	}
	seen := make(map[string]struct{}, len(e.Reviews))
	for _, r := range e.Reviews {
		if r.ID == "" {
			continue
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("%w: entity %q: duplicate review id %q", ErrMalformedInput, e.ID, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	for _, a := range e.Attributes {
		if err := CheckAttributeValue(a.Value); err != nil {
			return fmt.Errorf("%w: entity %q attribute %q: %v", ErrMalformedInput, e.ID, a.Key, err)
		}
	}
	return nil
}

// ValidateReviews checks a free-standing batch of review records.
func ValidateReviews(records []ReviewRecord) error {
	for i, r := range records {
		if err := validatorInstance().Struct(r); err != nil {
			return malformed(fmt.Sprintf("reviews[%d]", i), err)
		}
	}
	return nil
}

// ValidateStruct applies the catalogue rules to any tagged request struct.
func ValidateStruct(subject string, v any) error {
	if err := validatorInstance().Struct(v); err != nil {
		return malformed(subject, err)
	}
	return nil
}

// CheckAttributeValue accepts the JSON-ish shapes a comparison cell can show:
// nil, bool, numbers, strings, and lists of strings.
func CheckAttributeValue(v any) error {
	switch t := v.(type) {
	case float64:
		if !isFinite(t) {
			return fmt.Errorf("non-finite number %v", t)
		}
		return nil
	case float32:
		if !isFinite(float64(t)) {
			return fmt.Errorf("non-finite number %v", t)
		}
		return nil
	case nil, bool, string, int, int32, int64, uint, uint32, uint64, []string:
		return nil
	case []any:
		for i, item := range t {
			if _, ok := item.(string); !ok {
				return fmt.Errorf("list item %d has type %T, want string", i, item)
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
}

func malformed(subject string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %s: %v", ErrMalformedInput, subject, err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s: %s", ErrMalformedInput, subject, strings.Join(parts, "; "))
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
