// Command kalpp is the include-preprocessor: it splices `include "path"`
// directives into their target file's contents, recursively, the way
// original_source/kpp.cpp's processFile does, guarding against circular
// includes. Before splicing it stages a copy of the entry file's
// directory into a scratch directory with github.com/otiai10/copy, the way the
// teacher's pkg/resolved/package.go stages a package's native directory
// before packaging, so splicing always runs against a tree it owns and
// never mutates the caller's sources.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cp "github.com/otiai10/copy"
)

func main() {
	out := flag.String("o", "-", "output destination (\"-\" for stdout)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: kalpp [-o out] <entry-file>")
		os.Exit(2)
	}
	entry := flag.Arg(0)

	scratch, err := os.MkdirTemp("", "kalpp-*")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer os.RemoveAll(scratch)

	srcDir := filepath.Dir(entry)
	if err := cp.Copy(srcDir, scratch); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stage source tree: %v\n", err)
		os.Exit(1)
	}
	stagedEntry := filepath.Join(scratch, filepath.Base(entry))

	var sb strings.Builder
	processFile(stagedEntry, map[string]bool{}, &sb)

	if *out == "-" {
		fmt.Print(sb.String())
		return
	}
	if err := os.WriteFile(*out, []byte(sb.String()), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// processFile splices filename's include directives into sb, recursively,
// refusing to re-enter a file already on the current include chain.
func processFile(filename string, includedFiles map[string]bool, sb *strings.Builder) {
	if includedFiles[filename] {
		fmt.Fprintf(os.Stderr, "error: circular include detected for file %q\n", filename)
		return
	}
	includedFiles[filename] = true
	defer delete(includedFiles, filename)

	f, err := os.Open(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not open file %q\n", filename)
		return
	}
	defer f.Close()

	currDir := filepath.Dir(filename)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "include") {
			rel, ok := parseIncludeDirective(line)
			if !ok {
				fmt.Fprintf(os.Stderr, "warning: malformed include directive: %s\n", line)
				sb.WriteString(line)
				sb.WriteByte('\n')
				continue
			}
			processFile(filepath.Join(currDir, rel), includedFiles, sb)
			continue
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
}

func parseIncludeDirective(line string) (string, bool) {
	first := strings.IndexByte(line, '"')
	if first < 0 {
		return "", false
	}
	last := strings.IndexByte(line[first+1:], '"')
	if last < 0 {
		return "", false
	}
	return line[first+1 : first+1+last], true
}
