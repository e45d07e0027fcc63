package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/liftplan/pkg/component"
	"github.com/chazu/liftplan/pkg/engine"
)

// sceneExts are file extensions evaluated as Lisp scenes. Everything else
// is read as a JSON record array.
var sceneExts = map[string]bool{".lisp": true, ".lsp": true, ".zy": true}

// loadRecords reads component records from path, or from stdin when path
// is "-".
func loadRecords(path string, stdin io.Reader) ([]component.Record, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if sceneExts[strings.ToLower(filepath.Ext(path))] {
		return evalScene(string(data))
	}
	return component.DecodeRecords(bytes.NewReader(data))
}

func evalScene(source string) ([]component.Record, error) {
	recs, evalErrs, err := engine.NewEngine().Evaluate(source)
	if err != nil {
		return nil, err
	}
	if len(evalErrs) > 0 {
		errs := make([]error, len(evalErrs))
		for i, e := range evalErrs {
			errs[i] = e
		}
		return nil, fmt.Errorf("scene: %w", errors.Join(errs...))
	}
	return recs, nil
}

// projectName derives a document name from the input path.
func projectName(path string) string {
	if path == "-" {
		return "stdin"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
