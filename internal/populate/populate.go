// Package populate writes a definition's property values onto a freshly
// instantiated component.
package populate

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"

	"github.com/danpasecinic/loom/internal/definition"
	"github.com/danpasecinic/loom/internal/errs"
	reflectutil "github.com/danpasecinic/loom/internal/reflect"
)

const tagName = "loom"

var errNoTarget = errors.New("no setter or field accepts it")

type Resolver interface {
	GetComponent(ctx context.Context, name string, args ...any) (any, error)
}

// Populate assigns every property of def onto obj. References are resolved
// through r first, which builds the referenced component if needed.
func Populate(ctx context.Context, r Resolver, obj any, name string, def *definition.Definition) error {
	for _, pv := range def.Properties.All() {
		value := pv.Value
		ref, isRef := value.(definition.Reference)
		if isRef {
			resolved, err := r.GetComponent(ctx, ref.Name)
			if err != nil {
				return err
			}
			value = resolved
		}

		if err := Assign(obj, pv.Name, value, !isRef); err != nil {
			return errs.PropertyAssignment(name, pv.Name, err)
		}
	}
	return nil
}

// Assign writes value to the property called prop on obj. Lookup tries a
// Set<Prop> method, a field tagged loom:"prop", a field named prop and then a
// case-insensitive field name. Map components get the value under key prop.
// With weak set, values that are not assignable are decoded with mapstructure.
func Assign(obj any, prop string, value any, weak bool) error {
	if obj == nil {
		return errors.New("component is nil")
	}
	rv := reflect.ValueOf(obj)

	if m, ok := reflectutil.MethodByName(rv.Type(), "Set"+upperFirst(prop)); ok {
		if params := reflectutil.In(m); len(params) == 1 {
			return callSetter(rv.Method(m.Index), m, params[0], value, weak)
		}
	}

	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		v, err := convert(value, rv.Type().Elem(), weak)
		if err != nil {
			return err
		}
		rv.SetMapIndex(reflect.ValueOf(prop).Convert(rv.Type().Key()), v)
		return nil
	}

	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%v has no settable properties", rv.Type())
	}

	field, ok := lookupField(rv.Elem().Type(), prop)
	if !ok {
		return errNoTarget
	}
	fv, err := rv.Elem().FieldByIndexErr(field.Index)
	if err != nil {
		return err
	}
	if !fv.CanSet() {
		return fmt.Errorf("field %s cannot be set", field.Name)
	}

	v, err := convert(value, field.Type, weak)
	if err != nil {
		return err
	}
	fv.Set(v)
	return nil
}

func callSetter(fn reflect.Value, m reflect.Method, pt reflect.Type, value any, weak bool) error {
	v, err := convert(value, pt, weak)
	if err != nil {
		return err
	}
	out := fn.Call([]reflect.Value{v})
	if reflectutil.ReturnsError(m) {
		if err, _ := out[len(out)-1].Interface().(error); err != nil {
			return err
		}
	}
	return nil
}

func lookupField(t reflect.Type, prop string) (reflect.StructField, bool) {
	fields := reflect.VisibleFields(t)

	for _, f := range fields {
		if f.IsExported() && tagValue(f) == prop {
			return f, true
		}
	}
	for _, f := range fields {
		if f.IsExported() && !f.Anonymous && f.Name == prop {
			return f, true
		}
	}
	for _, f := range fields {
		if f.IsExported() && !f.Anonymous && strings.EqualFold(f.Name, prop) {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

func tagValue(f reflect.StructField) string {
	tag, _, _ := strings.Cut(f.Tag.Get(tagName), ",")
	return tag
}

func convert(value any, target reflect.Type, weak bool) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(target), nil
	}

	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(target) {
		return v, nil
	}
	if !weak {
		return reflect.Value{}, fmt.Errorf("cannot use %v as %v", v.Type(), target)
	}

	out := reflect.New(target)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out.Interface(),
		WeaklyTypedInput: true,
		TagName:          tagName,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return reflect.Value{}, err
	}
	if err := decoder.Decode(value); err != nil {
		return reflect.Value{}, fmt.Errorf("cannot decode %v into %v: %w", v.Type(), target, err)
	}
	return out.Elem(), nil
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
