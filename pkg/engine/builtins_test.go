package engine

import (
	"strings"
	"testing"

	"github.com/chazu/liftplan/pkg/component"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessSource(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"simple keyword", `(component :id 1)`, `(component "__kw_id" 1)`},
		{"multiple keywords", `(box :min a :max b)`, `(box "__kw_min" a "__kw_max" b)`},
		{"keyword in string preserved", `"level :L1 here"`, `"level :L1 here"`},
		{"escaped quote in string", `"a \" :b" :c`, `"a \" :b" "__kw_c"`},
		{"backtick string preserved", "`raw :kw`", "`raw :kw`"},
		{"assignment operator preserved", `(def x := 10)`, `(def x := 10)`},
		{"kebab-case identifier", `(def slab-top 3)`, `(def slab_top 3)`},
		{"minus operator preserved", `(- 10 5)`, `(- 10 5)`},
		{"negative literal preserved", `(vec3 -1 0 0)`, `(vec3 -1 0 0)`},
		{"comment converted to // style", `;; :keyword comment`, `// :keyword comment`},
		{"hyphen in keyword preserved", `:sdfx-cells`, `"__kw_sdfx-cells"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := preprocessSource(tt.input); got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Scene builtins
// ---------------------------------------------------------------------------

func evalScene(t *testing.T, source string) []component.Record {
	t.Helper()
	recs, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	return recs
}

func TestComponentWithBodies(t *testing.T) {
	recs := evalScene(t, `
; one beam made of two cuboids
(component :id 101 :name "B1" :category :beam :level "L2"
  (box :min (vec3 0 0 3) :max (vec3 6 0.3 3.6))
  (box :at (vec3 0 0 3.6) :size (vec3 6 0.3 0.1)))
`)
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	r := recs[0]
	if r.ID != 101 || r.Name != "B1" || r.Level != "L2" {
		t.Errorf("unexpected identity: %+v", r)
	}
	if r.Category != component.CategoryBeam {
		t.Errorf("category = %v, want beam", r.Category)
	}
	if len(r.Bodies) != 2 {
		t.Fatalf("expected 2 bodies, got %d", len(r.Bodies))
	}
	if r.Bodies[0].Max != [3]float64{6, 0.3, 3.6} {
		t.Errorf("body 0 max = %v", r.Bodies[0].Max)
	}
	if r.Bodies[1].Min != [3]float64{0, 0, 3.6} {
		t.Errorf("body 1 min = %v", r.Bodies[1].Min)
	}
	if r.Bounds != nil {
		t.Errorf("expected no explicit bounds, got %v", r.Bounds)
	}
}

func TestComponentsKeepDeclarationOrder(t *testing.T) {
	recs := evalScene(t, `
(def h 3)
(component :id 3 :category :slab (box :min (vec3 0 0 h) :max (vec3 4 4 3.2)))
(component :id 1 :category -2001330 (box :min (vec3 0 0 0) :max (vec3 1 1 h)))
(component :id 2 :category "Column" (offset (box :min (vec3 0 0 0) :max (vec3 1 1 h)) (vec3 3 0 0)))
`)
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	for i, want := range []component.ID{3, 1, 2} {
		if recs[i].ID != want {
			t.Errorf("record %d id = %d, want %d", i, recs[i].ID, want)
		}
	}
	if recs[0].Bodies[0].Min[2] != 3 {
		t.Errorf("slab bottom = %g, want 3", recs[0].Bodies[0].Min[2])
	}
	if recs[1].Category != component.CategoryColumn || recs[2].Category != component.CategoryColumn {
		t.Errorf("expected both columns, got %v and %v", recs[1].Category, recs[2].Category)
	}
	if got := recs[2].Bodies[0]; got.Min[0] != 3 || got.Max[0] != 4 {
		t.Errorf("offset body = %v", got)
	}
}

func TestComponentExplicitBounds(t *testing.T) {
	recs := evalScene(t, `
(component :id 7 :bounds (box :min (vec3 0 0 0) :max (vec3 2 2 2)))
`)
	if len(recs) != 1 || recs[0].Bounds == nil {
		t.Fatalf("expected one record with bounds, got %+v", recs)
	}
	if recs[0].Bounds.Max != [3]float64{2, 2, 2} {
		t.Errorf("bounds = %v", recs[0].Bounds)
	}
	if len(recs[0].Bodies) != 0 {
		t.Errorf("expected no bodies, got %d", len(recs[0].Bodies))
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{"missing id", `(component :name "x")`, "requires :id"},
		{"bad category", `(component :id 1 :category :roof)`, "unknown category"},
		{"body not a box", `(component :id 1 (vec3 0 0 0))`, "expected box"},
		{"box missing max", `(box :min (vec3 0 0 0))`, "requires :max"},
		{"box without corners", `(box)`, "requires :min/:max"},
		{"vec3 arity", `(vec3 1 2)`, "exactly 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, evalErrs, err := NewEngine().Evaluate(tt.source)
			if err != nil {
				t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
			}
			if recs != nil {
				t.Errorf("expected nil records, got %v", recs)
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected an eval error")
			}
			if !strings.Contains(evalErrs[0].Error(), tt.wantMsg) {
				t.Errorf("error = %q, want containing %q", evalErrs[0].Error(), tt.wantMsg)
			}
		})
	}
}

func TestEvaluateIsolatesScenes(t *testing.T) {
	eng := NewEngine()
	src := `(component :id 1 (box :min (vec3 0 0 0) :max (vec3 1 1 1)))`
	for i := 0; i < 3; i++ {
		recs, evalErrs, err := eng.Evaluate(src)
		if err != nil || len(evalErrs) > 0 {
			t.Fatalf("iteration %d: %v %v", i, err, evalErrs)
		}
		if len(recs) != 1 {
			t.Fatalf("iteration %d: expected 1 record, got %d", i, len(recs))
		}
	}
}
