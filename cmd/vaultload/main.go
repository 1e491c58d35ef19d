// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

// Command vaultload bulk-loads a CSV file into a collection via
// api.BulkWriter, one Set per row, flushing once at the end of the
// file. The header row's first column is the document ID; the rest
// follow the "name" / "name:type" annotation parsed by decode.go.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"

	ilog "github.com/vaultdocdb/vaultdoc-client-go/log"
	"github.com/vaultdocdb/vaultdoc-client-go/vaultdoc"
)

func main() {
	var (
		projectID  = flag.String("project", "", "target project ID")
		collection = flag.String("collection", "", "target collection")
		csvPath    = flag.String("file", "", "path to the CSV file to load")
		serverURL  = flag.String("server", "", "Vaultdoc server URL (defaults to production)")
		authToken  = flag.String("token", "", "auth token")
		verbose    = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	if *verbose {
		ilog.SetLogLevel(ilog.DebugLevel)
	}

	if err := run(*projectID, *collection, *csvPath, *serverURL, *authToken); err != nil {
		fmt.Fprintln(os.Stderr, "vaultload:", err)
		os.Exit(1)
	}
}

func run(projectID, collection, csvPath, serverURL, authToken string) error {
	if projectID == "" || collection == "" || csvPath == "" {
		return fmt.Errorf("-project, -collection and -file are required")
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", csvPath, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	cols, err := parseHeader(header)
	if err != nil {
		return err
	}

	client, err := vaultdoc.New(vaultdoc.Params{
		ProjectID: projectID,
		ServerURL: serverURL,
		AuthToken: authToken,
	})
	if err != nil {
		return fmt.Errorf("building client: %w", err)
	}

	writer := client.BulkWriter(nil)
	var loaded, failed int
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		docID, row := row[0], row[1:]
		fields, err := decodeRow(cols, row)
		if err != nil {
			fmt.Fprintln(os.Stderr, "vaultload: skipping row:", err)
			failed++
			continue
		}
		ref, err := client.NewDocumentRef(collection + "/" + docID)
		if err != nil {
			fmt.Fprintln(os.Stderr, "vaultload: skipping row:", err)
			failed++
			continue
		}
		if _, err := writer.Set(ref.Path(), fields, nil); err != nil {
			fmt.Fprintln(os.Stderr, "vaultload: enqueue failed:", err)
			failed++
			continue
		}
		loaded++
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("flushing writes: %w", err)
	}
	fmt.Printf("vaultload: %d rows loaded, %d skipped\n", loaded, failed)
	return nil
}
