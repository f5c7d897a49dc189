package engine

import (
	"regexp"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/querypath/playground/errors"
)

// surfaceWIT declares the guest call surface. The settling check after
// instantiation validates the published exports against this text; a
// guest missing any declared operation fails the load.
const surfaceWIT = `
package querypath:playground;

interface evaluator {
    evaluate: func(document: string, path: string) -> string;
    validate: func(document: string) -> bool;
    version: func() -> string;
}
`

type funcSignature struct {
	params  []wit.Type
	results []wit.Type
}

// parseSurface extracts function signatures from WIT text.
// Pattern: name: func(params) -> result;
func parseSurface(witText string) (map[string]*funcSignature, error) {
	funcs := make(map[string]*funcSignature)

	funcPattern := regexp.MustCompile(`([a-zA-Z_][a-zA-Z0-9_-]*)\s*:\s*func\s*\(([^)]*)\)(?:\s*->\s*([^;]+))?`)

	for _, match := range funcPattern.FindAllStringSubmatch(witText, -1) {
		name := match[1]
		paramsStr := strings.TrimSpace(match[2])
		resultStr := ""
		if len(match) > 3 {
			resultStr = strings.TrimSpace(match[3])
		}

		sig := &funcSignature{}

		if paramsStr != "" {
			for _, p := range strings.Split(paramsStr, ",") {
				typStr := p
				if idx := strings.LastIndex(p, ":"); idx != -1 {
					typStr = p[idx+1:]
				}
				t, err := wit.ParseType(strings.TrimSpace(typStr))
				if err != nil {
					return nil, errors.InvalidInput(errors.PhaseLoad, "parse param type "+typStr)
				}
				sig.params = append(sig.params, t)
			}
		}

		if resultStr != "" {
			t, err := wit.ParseType(resultStr)
			if err != nil {
				return nil, errors.InvalidInput(errors.PhaseLoad, "parse result type "+resultStr)
			}
			sig.results = []wit.Type{t}
		}

		funcs[name] = sig
	}

	if len(funcs) == 0 {
		return nil, errors.InvalidInput(errors.PhaseLoad, "no functions found in WIT text")
	}

	return funcs, nil
}

// flatParamCount returns the number of core (i32) parameters a WIT
// signature lowers to: strings become (ptr, len) pairs, scalars one slot.
func flatParamCount(sig *funcSignature) int {
	n := 0
	for _, t := range sig.params {
		n += flatSize(t)
	}
	return n
}

func flatSize(t wit.Type) int {
	switch t.(type) {
	case wit.String:
		return 2
	default:
		return 1
	}
}
