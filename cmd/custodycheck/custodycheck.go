// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// custodycheck validates custody event log exports

package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/fieldops/custody-server/pkg/check"
)

func init() {
	// Output to stdout instead of the default stderr
	log.SetOutput(os.Stdout)

	log.SetFormatter(&log.TextFormatter{
		DisableTimestamp: true,
	})
}

func usage() {
	fmt.Println("Usage: custodycheck [-level] [-verbose] filepath")
	flag.PrintDefaults()
}

func main() {

	// parse the command line
	level := flag.Uint("level", 2, "checker level (1 schema, 2 event sequences)")
	verbose := flag.Bool("verbose", false, "if set, display info messages; if not set, display only warnings and errors.")
	flag.Parse()

	// the verbose flag acts on the info level
	if !*verbose {
		log.SetLevel(log.WarnLevel)
	}

	// open the export
	filepath := flag.Arg(0)
	if filepath == "" {
		usage()
		os.Exit(1)
	}

	bytes, err := os.ReadFile(filepath)
	if err != nil {
		log.Fatal("Error: ", err)
	}
	// log the file name
	fmt.Println("Checking ", filepath)

	// pass all checks
	err = check.Checker(bytes, *level)
	if err != nil {
		os.Exit(1)
	}
}
