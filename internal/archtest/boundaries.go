// Package archtest enforces the import boundaries between bounded-context
// modules under internal/.
//
// A module may import from another module only its events package, the
// translation ports in internal/acl/ports and anything in internal/shared.
// The ACL adapters and cmd are the composition layer and may import any
// module package.
package archtest

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/mod/modfile"
)

// Modules lists the bounded contexts under internal/.
var Modules = []string{
	"achievements",
	"acl",
	"chat",
	"friends",
	"lobby",
	"notification",
	"player",
	"shared",
}

// Violation is one forbidden import.
type Violation struct {
	File   string
	Import string
	Reason string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s imports %s: %s", v.File, v.Import, v.Reason)
}

// Check walks the module rooted at root and reports every import that
// crosses a module boundary.
func Check(root string) ([]Violation, error) {
	modulePath, err := readModulePath(root)
	if err != nil {
		return nil, err
	}
	modules := make(map[string]bool, len(Modules))
	for _, m := range Modules {
		modules[m] = true
	}

	var violations []Violation
	fset := token.NewFileSet()
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || name == "testdata" || name == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if composition(rel) {
			return nil
		}
		owner := moduleOf(strings.TrimPrefix(filepath.ToSlash(filepath.Dir(rel)), "./"), modules)

		parsed, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return fmt.Errorf("parse imports for %s: %w", rel, err)
		}
		for _, imp := range parsed.Imports {
			importPath, err := strconv.Unquote(imp.Path.Value)
			if err != nil {
				return fmt.Errorf("unquote import in %s: %w", rel, err)
			}
			if !strings.HasPrefix(importPath, modulePath+"/") {
				continue
			}
			if reason, ok := allowed(owner, strings.TrimPrefix(importPath, modulePath+"/"), modules); !ok {
				violations = append(violations, Violation{File: rel, Import: importPath, Reason: reason})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		return violations[i].Import < violations[j].Import
	})
	return violations, nil
}

func readModulePath(root string) (string, error) {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return "", fmt.Errorf("read go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("go.mod in %s has no module directive", root)
	}
	return path, nil
}

func composition(rel string) bool {
	return strings.HasPrefix(rel, "cmd/") || strings.HasPrefix(rel, "internal/acl/adapters/")
}

// moduleOf returns the module owning a package directory, or "" for
// packages outside every module.
func moduleOf(dir string, modules map[string]bool) string {
	parts := strings.Split(dir, "/")
	if len(parts) >= 2 && parts[0] == "internal" && modules[parts[1]] {
		return parts[1]
	}
	return ""
}

// allowed decides one import from a package owned by owner. pkg is the
// import path relative to the module root.
func allowed(owner, pkg string, modules map[string]bool) (string, bool) {
	target := moduleOf(pkg, modules)
	if target == "" || target == owner {
		return "", true
	}
	rest := strings.TrimPrefix(pkg, "internal/"+target)
	switch {
	case target == "shared":
		return "", true
	case target == "acl" && (rest == "/ports" || strings.HasPrefix(rest, "/ports/")):
		return "", true
	case rest == "/events":
		return "", true
	}
	if owner == "" {
		return fmt.Sprintf("only the composition layer may reach into module %s", target), false
	}
	return fmt.Sprintf("module %s may only use the events contract of module %s", owner, target), false
}
