// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"
	"strings"
)

// colType is the annotated type of one CSV column, parsed from its
// header cell. A header of "name" alone defaults to string; "name:long"
// etc. selects a converter, covering the handful of JSON-representable
// scalar kinds a document field needs.
type colType int

const (
	stringCol colType = iota
	longCol
	doubleCol
	boolCol
)

var columnTypes = map[string]colType{
	"string":  stringCol,
	"long":    longCol,
	"double":  doubleCol,
	"boolean": boolCol,
}

// converters maps each colType to the function that turns one CSV
// cell into the any value that belongs in a document's field map.
var converters = map[colType]func(string) (any, error){
	stringCol: func(s string) (any, error) { return s, nil },
	longCol: func(s string) (any, error) {
		v, err := strconv.ParseInt(s, 10, 64)
		return v, err
	},
	doubleCol: func(s string) (any, error) {
		v, err := strconv.ParseFloat(s, 64)
		return v, err
	},
	boolCol: func(s string) (any, error) {
		v, err := strconv.ParseBool(s)
		return v, err
	},
}

// column is one parsed header cell: its document field name and the
// converter to apply to every row's value in that position.
type column struct {
	name    string
	convert func(string) (any, error)
}

// parseHeader turns a CSV header row into a positional list of
// columns. Cells of the form "name:type" select a converter; bare
// "name" cells default to string. The first cell names the document ID
// column; it must be non-empty (its text is not otherwise checked) and
// is handled specially by the caller, not included in the returned
// slice.
func parseHeader(header []string) ([]column, error) {
	if len(header) == 0 || header[0] == "" {
		return nil, fmt.Errorf("vaultload: header row must start with a documentId column")
	}
	cols := make([]column, 0, len(header)-1)
	for _, cell := range header[1:] {
		name, typeName, _ := strings.Cut(cell, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("vaultload: empty column name in header %q", cell)
		}
		if typeName == "" {
			typeName = "string"
		}
		ct, ok := columnTypes[typeName]
		if !ok {
			return nil, fmt.Errorf("vaultload: unknown column type %q in header %q", typeName, cell)
		}
		cols = append(cols, column{name: name, convert: converters[ct]})
	}
	return cols, nil
}

// decodeRow converts one CSV row (row[0] is the document ID, already
// stripped by the caller) into a field map, using cols to interpret
// each remaining cell.
func decodeRow(cols []column, row []string) (map[string]any, error) {
	if len(row) != len(cols) {
		return nil, fmt.Errorf("vaultload: row has %d cells, header declares %d", len(row), len(cols))
	}
	fields := make(map[string]any, len(cols))
	for i, col := range cols {
		v, err := col.convert(row[i])
		if err != nil {
			return nil, fmt.Errorf("vaultload: column %q: %w", col.name, err)
		}
		fields[col.name] = v
	}
	return fields, nil
}
