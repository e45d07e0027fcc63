// Package engine evaluates liftplan scene files. A scene is a small Lisp
// program run in a sandboxed zygomys interpreter; each (component ...)
// form it evaluates contributes one component record.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/liftplan/pkg/component"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError is a non-fatal problem in scene source, such as a parse
// error or a bad builtin argument.
type EvalError struct {
	Line    int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine evaluates scenes. It is safe for concurrent use; every call to
// Evaluate gets a fresh sandbox, and a newer call supersedes an older one
// still waiting for its result.
type Engine struct {
	// Timeout bounds a single evaluation. Zero means EvalTimeout.
	Timeout time.Duration

	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs source and returns the declared records in declaration
// order.
//
// Return semantics:
//   - On success: records + nil errors + nil error
//   - On parse/eval failure: nil records + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): nil + nil + error
func (e *Engine) Evaluate(source string) ([]component.Record, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("engine: panic during evaluation: %v", r)}
			}
		}()
		recs, evalErrs := evaluate(source)
		ch <- evalResult{records: recs, errors: evalErrs}
	}()

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = EvalTimeout
	}
	return waitWithTimeout(ch, timeout, gen, &e.mu, &e.generation)
}

func evaluate(source string) ([]component.Record, []EvalError) {
	if strings.TrimSpace(source) == "" {
		return []component.Record{}, nil
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()

	sc := &scene{records: []component.Record{}}
	registerBuiltins(env, sc)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err)
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err)
	}
	return sc.records, nil
}

// Error messages come as "Error on line N: ..." or "line N: ...".
var (
	linePattern      = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)
	linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)
)

func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
