package types

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cast"
	"gorm.io/gorm/clause"
)

type CommonFilterOperator string

const (
	CommonFilterOperatorEq        CommonFilterOperator = "eq"
	CommonFilterOperatorNotEq     CommonFilterOperator = "not_eq"
	CommonFilterOperatorLt        CommonFilterOperator = "lt"
	CommonFilterOperatorLte       CommonFilterOperator = "lte"
	CommonFilterOperatorGt        CommonFilterOperator = "gt"
	CommonFilterOperatorGte       CommonFilterOperator = "gte"
	CommonFilterOperatorDateRange CommonFilterOperator = "date_range"
	CommonFilterOperatorRange     CommonFilterOperator = "range"
	CommonFilterOperatorIn        CommonFilterOperator = "in"
	// CommonFilterOperatorOr matches when any nested filter matches.
	CommonFilterOperatorOr CommonFilterOperator = "or"
)

var ErrInvalidFilter = errors.New("invalid filter")

// jsonPathField matches data->>'Key' style fields over a jsonb column.
var jsonPathField = regexp.MustCompile(`^([a-z_]+)->>?'([A-Za-z0-9_]+)'$`)

func fieldAllowed(field string, allowed []string) bool {
	if m := jsonPathField.FindStringSubmatch(field); m != nil {
		return lo.Contains(allowed, m[1])
	}
	return lo.Contains(allowed, field)
}

// CommonFilter is the admin listing filter. Field names are interpolated into
// SQL, so callers must run Validate against a column allow-list first.
type CommonFilter struct {
	Field    string               `json:"field"`
	Operator CommonFilterOperator `json:"operator"`
	Values   []any                `json:"values"`
	Filters  []CommonFilter       `json:"filters"`
}

// Validate checks operator arity and that every referenced field is allowed.
func (f *CommonFilter) Validate(allowed []string) error {
	if f.Operator == CommonFilterOperatorOr {
		if len(f.Filters) == 0 {
			return fmt.Errorf("%w: or without nested filters", ErrInvalidFilter)
		}
		for i := range f.Filters {
			if err := f.Filters[i].Validate(allowed); err != nil {
				return err
			}
		}
		return nil
	}
	if !fieldAllowed(f.Field, allowed) {
		return fmt.Errorf("%w: field %q", ErrInvalidFilter, f.Field)
	}
	switch f.Operator {
	case CommonFilterOperatorEq, CommonFilterOperatorNotEq, CommonFilterOperatorLt,
		CommonFilterOperatorLte, CommonFilterOperatorGt, CommonFilterOperatorGte, CommonFilterOperatorIn:
		if len(f.Values) == 0 {
			return fmt.Errorf("%w: %s needs a value", ErrInvalidFilter, f.Operator)
		}
	case CommonFilterOperatorRange:
		if len(f.Values) < 2 {
			return fmt.Errorf("%w: range needs two values", ErrInvalidFilter)
		}
	case CommonFilterOperatorDateRange:
		if len(f.Values) < 2 {
			return fmt.Errorf("%w: date_range needs two values", ErrInvalidFilter)
		}
		for _, v := range f.Values[:2] {
			if _, err := cast.ToTimeE(v); err != nil {
				return fmt.Errorf("%w: date_range value %v", ErrInvalidFilter, v)
			}
		}
	default:
		return fmt.Errorf("%w: operator %q", ErrInvalidFilter, f.Operator)
	}
	return nil
}

func (f *CommonFilter) expression() clause.Expression {
	if f.Operator == CommonFilterOperatorOr {
		exprs := lo.FilterMap(f.Filters, func(nested CommonFilter, _ int) (clause.Expression, bool) {
			e := nested.expression()
			return e, e != nil
		})
		if len(exprs) == 0 {
			return nil
		}
		return clause.Or(exprs...)
	}
	if len(f.Values) == 0 {
		return nil
	}
	value := f.Values[0]

	switch f.Operator {
	case CommonFilterOperatorEq:
		// JSON path fields (data->>'Status') cannot go through clause.Eq quoting
		if strings.Contains(f.Field, "->") {
			return clause.Expr{SQL: fmt.Sprintf("%s = ?", f.Field), Vars: []interface{}{value}}
		}
		return clause.Eq{Column: f.Field, Value: value}
	case CommonFilterOperatorNotEq:
		return clause.Neq{Column: f.Field, Value: value}
	case CommonFilterOperatorLt:
		return clause.Lt{Column: f.Field, Value: value}
	case CommonFilterOperatorLte:
		return clause.Lte{Column: f.Field, Value: value}
	case CommonFilterOperatorGt:
		return clause.Gt{Column: f.Field, Value: value}
	case CommonFilterOperatorGte:
		return clause.Gte{Column: f.Field, Value: value}
	case CommonFilterOperatorRange:
		if len(f.Values) < 2 {
			return nil
		}
		return clause.And(clause.Gte{Column: f.Field, Value: f.Values[0]}, clause.Lte{Column: f.Field, Value: f.Values[1]})
	case CommonFilterOperatorDateRange:
		if len(f.Values) < 2 {
			return nil
		}
		from, err1 := cast.ToTimeE(f.Values[0])
		to, err2 := cast.ToTimeE(f.Values[1])
		if err1 != nil || err2 != nil {
			return nil
		}
		return clause.And(clause.Gte{Column: f.Field, Value: from.UTC()}, clause.Lt{Column: f.Field, Value: to.UTC()})
	case CommonFilterOperatorIn:
		return clause.IN{Column: f.Field, Values: f.Values}
	}
	return nil
}

// Build constructs a GORM expression.
func (f *CommonFilter) Build(builder clause.Builder) {
	if e := f.expression(); e != nil {
		e.Build(builder)
	}
}

// FiltersAnd combines filters into one conjunction; no filters matches all rows.
type FiltersAnd []*CommonFilter

func (w FiltersAnd) Build(builder clause.Builder) {
	exprs := make([]clause.Expression, 0, len(w))
	for _, f := range w {
		if e := f.expression(); e != nil {
			exprs = append(exprs, e)
		}
	}
	if len(exprs) == 0 {
		builder.WriteString("1=1")
		return
	}
	clause.And(exprs...).Build(builder)
}

// DateRange is a helper for the common created_at window filter.
func DateRange(field string, from, to time.Time) *CommonFilter {
	return &CommonFilter{Field: field, Operator: CommonFilterOperatorDateRange, Values: []any{from, to}}
}
