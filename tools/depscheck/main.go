package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

type packageInfo struct {
	ImportPath string
	Imports    []string
}

// The collision core must stay embeddable: standard library plus the ID
// generator, nothing from the server layers and no other third-party code.
var allowedNonStdlib = map[string]struct{}{
	"github.com/google/uuid": {},
}

func main() {
	cmd := exec.Command("go", "list", "-json", "./internal/broadphase")
	cmd.Env = os.Environ()
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Stderr.Write(exitErr.Stderr)
		}
		fmt.Fprintf(os.Stderr, "depscheck: failed to list packages: %v\n", err)
		os.Exit(1)
	}

	decoder := json.NewDecoder(bytes.NewReader(output))

	var violations []string
	for {
		var pkg packageInfo
		if err := decoder.Decode(&pkg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			fmt.Fprintf(os.Stderr, "depscheck: failed to decode package info: %v\n", err)
			os.Exit(1)
		}

		for _, imp := range pkg.Imports {
			if allowed(imp) {
				continue
			}
			violations = append(violations, fmt.Sprintf("%s -> %s", pkg.ImportPath, imp))
		}
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		fmt.Fprintln(os.Stderr, "depscheck: found forbidden imports:")
		for _, violation := range violations {
			fmt.Fprintf(os.Stderr, "  %s\n", violation)
		}
		os.Exit(1)
	}
}

func allowed(importPath string) bool {
	if _, ok := allowedNonStdlib[importPath]; ok {
		return true
	}
	if strings.HasPrefix(importPath, "broadphase/server/") {
		return false
	}
	first, _, _ := strings.Cut(importPath, "/")
	// Stdlib packages have no dot in their first path element.
	return !strings.Contains(first, ".")
}
