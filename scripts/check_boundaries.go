package main

import (
	"fmt"
	"go/build/constraint"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	modulePath = "fanvault"
	// sharedKernel holds the idempotency guard, event envelope and outbox
	// row shape. Application code may use it; domain code may not.
	sharedKernel = modulePath + "/internal/shared"

	bypassSuffix = "_testbypass.go"
	bypassTag    = "testbypass"
)

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule lists what one service layer may import besides the standard
// library. Prefixes starting with "/" are relative to the owning service.
type layerRule struct {
	allowed        []string
	forbidAdapters bool
}

var layerRules = map[string]layerRule{
	"domain": {
		allowed:        []string{"/domain"},
		forbidAdapters: true,
	},
	"ports": {
		allowed:        []string{"/domain", "/ports", sharedKernel},
		forbidAdapters: true,
	},
	"application": {
		allowed:        []string{"/application", "/domain", "/ports", sharedKernel},
		forbidAdapters: true,
	},
	// Transport DTOs are plain structs.
	"transport": {
		allowed:        []string{"/transport"},
		forbidAdapters: true,
	},
}

func main() {
	violations := collectViolations("contexts")
	violations = append(violations, collectBypassViolations(".")...)
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File == violations[j].File {
			if violations[i].Line == violations[j].Line {
				return violations[i].Import < violations[j].Import
			}
			return violations[i].Line < violations[j].Line
		}
		return violations[i].File < violations[j].File
	})

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		if v.Import == "" {
			fmt.Printf("- %s:%d (%s)\n", v.File, v.Line, v.Rule)
			continue
		}
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) []violation {
	var violations []violation

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		normalized := filepath.ToSlash(path)
		parts := strings.Split(normalized, "/")
		if len(parts) < 4 || parts[0] != "contexts" {
			return nil
		}

		servicePrefix := fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[1], parts[2])
		violations = append(violations, validateFile(path, normalized, parts[3], servicePrefix)...)
		return nil
	})

	return violations
}

func validateFile(path string, normalizedPath string, layer string, servicePrefix string) []violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: normalizedPath, Line: 1, Rule: "file must parse"}}
	}

	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		line := fset.Position(imp.Pos()).Line
		report := func(rule string) {
			violations = append(violations, violation{File: normalizedPath, Line: line, Import: importPath, Rule: rule})
		}

		if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, servicePrefix) {
			report("cross-module imports are forbidden")
		}

		rule, ok := layerRules[layer]
		if !ok {
			continue
		}
		if rule.forbidAdapters && strings.Contains(importPath, "/adapters/") {
			report(layer + " must not import adapters")
		}
		if isInfrastructure(importPath) {
			report(layer + " must not import runtime infrastructure")
		}
		if !isStdlib(importPath) && !isAllowed(importPath, rule.resolve(servicePrefix)) {
			report(layer + " import is outside explicit allowlist")
		}
	}

	return violations
}

func (r layerRule) resolve(servicePrefix string) []string {
	out := make([]string, 0, len(r.allowed))
	for _, prefix := range r.allowed {
		if strings.HasPrefix(prefix, "/") {
			prefix = servicePrefix + prefix
		}
		out = append(out, prefix)
	}
	return out
}

// collectBypassViolations requires every *_testbypass.go file to build only
// under the testbypass tag, so the unauthenticated routes never reach a
// production binary.
func collectBypassViolations(root string) []violation {
	var violations []violation

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if name := d.Name(); path != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		if !strings.HasSuffix(name, bypassSuffix) && !strings.HasSuffix(name, strings.TrimSuffix(bypassSuffix, ".go")+"_test.go") {
			return nil
		}
		if !requiresTag(path, bypassTag) {
			violations = append(violations, violation{
				File: filepath.ToSlash(path),
				Line: 1,
				Rule: "bypass file must carry //go:build " + bypassTag,
			})
		}
		return nil
	})

	return violations
}

// requiresTag reports whether the file's build constraint is unsatisfiable
// without tag.
func requiresTag(path string, tag string) bool {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments|parser.PackageClauseOnly)
	if err != nil {
		return false
	}
	for _, group := range file.Comments {
		if group.Pos() >= file.Package {
			break
		}
		for _, comment := range group.List {
			if !constraint.IsGoBuild(comment.Text) {
				continue
			}
			expr, err := constraint.Parse(comment.Text)
			if err != nil {
				return false
			}
			return !expr.Eval(func(t string) bool { return t != tag })
		}
	}
	return false
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isAllowed(importPath string, allowedPrefixes []string) bool {
	for _, p := range allowedPrefixes {
		if hasPrefix(importPath, p) {
			return true
		}
	}
	return false
}

func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first := importPath
	if idx := strings.Index(first, "/"); idx != -1 {
		first = first[:idx]
	}
	return !strings.Contains(first, ".")
}

// isInfrastructure reports runtime wiring packages. The shared kernel is pure
// code and stays importable.
func isInfrastructure(importPath string) bool {
	if hasPrefix(importPath, sharedKernel) {
		return false
	}
	return hasPrefix(importPath, modulePath+"/internal") || hasPrefix(importPath, modulePath+"/cmd")
}
