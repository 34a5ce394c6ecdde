// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command dbc-diff is the minimal two-file diff CLI the contract in
// spec.md §6 describes: read two DBC files, print the first structural
// difference, exit 0 regardless of whether one was found, exit non-zero
// on a parse or semantic error. It intentionally depends on nothing
// beyond pkg/dbc and the standard library — no config, no cache, no
// logging framework — so it stays usable as a drop-in replacement for
// the original two-file diff tool this system was modeled on.
package main

import (
	"fmt"
	"os"

	"github.com/ClusterCockpit/cc-dbc/pkg/dbc"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <file1> <file2>\n", os.Args[0])
		os.Exit(2)
	}

	left, err := readAndParse(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	right, err := readAndParse(os.Args[2])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Print(left.Diff(right))
	os.Exit(0)
}

func readAndParse(path string) (*dbc.Bus, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	bus, err := dbc.Parse(string(text))
	if err != nil {
		return nil, fmt.Errorf("%s: %s", path, err.Error())
	}
	return bus, nil
}
