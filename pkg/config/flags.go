package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
	"gopkg.in/alecthomas/kingpin.v2"
)

// Flagger is implemented by *kingpin.Application and *kingpin.CmdClause.
type Flagger interface {
	Flag(name, help string) *kingpin.FlagClause
}

// Overrides holds the configuration values given on the command line. Only
// flags the user actually passed are applied on top of a loaded file.
type Overrides struct {
	values Config
	set    map[string]bool
}

// RegisterFlags adds one flag per configuration field to f.
func RegisterFlags(f Flagger) *Overrides {
	o := &Overrides{set: make(map[string]bool)}
	v := reflect.ValueOf(&o.values).Elem()
	visitFields("", v.Type(), nil, func(name string, index []int, field reflect.StructField) {
		clause := f.Flag(name, field.Tag.Get("desc")).Action(o.markSet(name))
		if def := field.Tag.Get("def"); def != "" {
			clause = clause.Default(def)
		}
		switch val := v.FieldByIndex(index).Addr().Interface().(type) {
		case *string:
			if enum := field.Tag.Get("enum"); enum != "" {
				clause.EnumVar(val, strings.Split(enum, "|")...)
				return
			}
			clause.StringVar(val)
		case *bool:
			clause.BoolVar(val)
		case *int:
			clause.IntVar(val)
		case *ByteSize:
			clause.SetValue(val)
		default:
			panic(fmt.Sprintf("config: type %s of %s is not supported", field.Type, name))
		}
	})
	return o
}

func (o *Overrides) markSet(name string) kingpin.Action {
	return func(*kingpin.ParseContext) error {
		o.set[name] = true
		return nil
	}
}

// Apply copies every flag set on the command line into c.
func (o *Overrides) Apply(c *Config) {
	src := reflect.ValueOf(&o.values).Elem()
	dst := reflect.ValueOf(c).Elem()
	visitFields("", src.Type(), nil, func(name string, index []int, _ reflect.StructField) {
		if o.set[name] {
			dst.FieldByIndex(index).Set(src.FieldByIndex(index))
		}
	})
}

func setDefaults(c *Config) error {
	var err error
	v := reflect.ValueOf(c).Elem()
	visitFields("", v.Type(), nil, func(name string, index []int, field reflect.StructField) {
		def := field.Tag.Get("def")
		if def == "" || err != nil {
			return
		}
		if e := setString(v.FieldByIndex(index), def); e != nil {
			err = fmt.Errorf("invalid default value: %q (%s): %w", def, name, e)
		}
	})
	return err
}

func setString(v reflect.Value, s string) error {
	if setter, ok := v.Addr().Interface().(interface{ Set(string) error }); ok {
		return setter.Set(s)
	}
	switch v.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int:
		i, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		v.SetInt(int64(i))
	default:
		return fmt.Errorf("type %s is not supported", v.Type())
	}
	return nil
}

// visitFields calls fn for every leaf field of t. Flag names are the kebab
// case field names joined by dots.
func visitFields(prefix string, t reflect.Type, index []int, fn func(name string, index []int, field reflect.StructField)) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := strcase.ToKebab(field.Name)
		if prefix != "" {
			name = prefix + "." + name
		}
		idx := append(append([]int(nil), index...), i)
		if field.Type.Kind() == reflect.Struct {
			visitFields(name, field.Type, idx, fn)
			continue
		}
		fn(name, idx, field)
	}
}
