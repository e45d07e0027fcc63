package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/liftplan/pkg/component"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values between builtins
// ---------------------------------------------------------------------------

type sexpVec3 struct {
	v [3]float64
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.v[0], v.v[1], v.v[2])
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpBox wraps one cuboid body.
type sexpBox struct {
	b component.BBox
}

func (b *sexpBox) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(box %s)", b.b)
}
func (b *sexpBox) Type() *zygo.RegisteredType { return nil }

// sexpComponent is returned by `component` so scenes can print what they
// declared.
type sexpComponent struct {
	id   component.ID
	name string
}

func (c *sexpComponent) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(component %d %q)", c.id, c.name)
}
func (c *sexpComponent) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs splits args into keyword and positional arguments. A trailing
// keyword with no value maps to SexpNull.
func parseArgs(args []zygo.Sexp) kwArgs {
	pa := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			pa.positional = append(pa.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			pa.kw[name] = args[i+1]
			i++
		} else {
			pa.kw[name] = zygo.SexpNull
		}
	}
	return pa
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toInt64(s zygo.Sexp) (int64, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString accepts both :keyword and "string".
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// toCategory accepts a category keyword (:slab), a name string, or a
// numeric category id.
func toCategory(s zygo.Sexp) (component.Category, error) {
	if id, err := toInt64(s); err == nil {
		return component.Category(id), nil
	}
	name, err := toKeywordString(s)
	if err != nil {
		return component.CategoryUnknown, err
	}
	return component.ParseCategory(name)
}

func toVec3(s zygo.Sexp) ([3]float64, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.v, nil
	}
	return [3]float64{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toBox(s zygo.Sexp) (component.BBox, error) {
	if b, ok := s.(*sexpBox); ok {
		return b.b, nil
	}
	return component.BBox{}, fmt.Errorf("expected box, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// scene collects the records declared during one evaluation.
type scene struct {
	records []component.Record
}

// registerBuiltins installs the scene builtins into env. Source must have
// gone through preprocessSource first.
func registerBuiltins(env *zygo.Zlisp, sc *scene) {

	// (vec3 1 2 3)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var v [3]float64
		for i, axis := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
			}
			v[i] = f
		}
		return &sexpVec3{v: v}, nil
	})

	// -----------------------------------------------------------------------
	// (box :min (vec3 0 0 0) :max (vec3 6 0.3 0.6))
	// (box :at (vec3 0 0 3) :size (vec3 6 0.3 0.6))
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var b component.BBox

		_, hasMin := pa.kw["min"]
		_, hasAt := pa.kw["at"]
		switch {
		case hasMin:
			lo, err := toVec3(pa.kw["min"])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: min: %w", err)
			}
			v, ok := pa.kw["max"]
			if !ok {
				return zygo.SexpNull, fmt.Errorf("box: :min requires :max")
			}
			hi, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: max: %w", err)
			}
			b = component.BBox{Min: lo, Max: hi}

		case hasAt:
			at, err := toVec3(pa.kw["at"])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: at: %w", err)
			}
			v, ok := pa.kw["size"]
			if !ok {
				return zygo.SexpNull, fmt.Errorf("box: :at requires :size")
			}
			size, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
			}
			b.Min = at
			for i := range b.Max {
				b.Max[i] = at[i] + size[i]
			}

		default:
			return zygo.SexpNull, fmt.Errorf("box requires :min/:max or :at/:size")
		}
		return &sexpBox{b: b}, nil
	})

	// (offset (box ...) (vec3 dx dy dz))
	env.AddFunction("offset", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("offset requires a box and a vec3")
		}
		b, err := toBox(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("offset: %w", err)
		}
		d, err := toVec3(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("offset: %w", err)
		}
		for i := range d {
			b.Min[i] += d[i]
			b.Max[i] += d[i]
		}
		return &sexpBox{b: b}, nil
	})

	// -----------------------------------------------------------------------
	// (component :id 101 :name "B1" :category :beam :level "L2"
	//            :bounds (box ...)
	//   (box ...) (box ...))
	//
	// Positional boxes are the component's bodies. :bounds is optional.
	// -----------------------------------------------------------------------
	env.AddFunction("component", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var rec component.Record

		v, ok := pa.kw["id"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("component requires :id")
		}
		id, err := toInt64(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("component: id: %w", err)
		}
		rec.ID = component.ID(id)

		if v, ok := pa.kw["name"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("component %d: name: %w", id, err)
			}
			rec.Name = s
		}
		if v, ok := pa.kw["category"]; ok {
			c, err := toCategory(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("component %d: category: %w", id, err)
			}
			rec.Category = c
		}
		if v, ok := pa.kw["level"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("component %d: level: %w", id, err)
			}
			rec.Level = s
		}
		if v, ok := pa.kw["bounds"]; ok {
			b, err := toBox(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("component %d: bounds: %w", id, err)
			}
			rec.Bounds = &b
		}
		for i, arg := range pa.positional {
			b, err := toBox(arg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("component %d: body %d: %w", id, i, err)
			}
			rec.Bodies = append(rec.Bodies, b)
		}

		sc.records = append(sc.records, rec)
		return &sexpComponent{id: rec.ID, name: rec.Name}, nil
	})
}
