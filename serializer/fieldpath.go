// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

package serializer

import "strings"

// fieldPath is a dot-separated path flattened from nested map[string]any
// user data, e.g. {"a": {"b": 1}} flattens to fieldPath "a.b".
type fieldPath string

func (p fieldPath) segments() []string {
	return strings.Split(string(p), ".")
}

// isPrefixOf reports whether p is a strict ancestor of other, i.e.
// other == p + "." + something. Used to detect the conflicting case
// where both "a" and "a.b" are specified.
func (p fieldPath) isPrefixOf(other fieldPath) bool {
	ps, os := p.segments(), other.segments()
	if len(ps) >= len(os) {
		return false
	}
	for i := range ps {
		if ps[i] != os[i] {
			return false
		}
	}
	return true
}

// flatten walks a nested map[string]any, producing one fieldPath/value
// pair per leaf (a value is a leaf if it is not itself a
// map[string]any, including sentinels). Leaf order follows Go's
// randomized map iteration, but whether findConflict below reports a
// conflict is iteration-order independent.
func flatten(prefix fieldPath, data map[string]any, out map[fieldPath]any) {
	for k, v := range data {
		p := fieldPath(k)
		if prefix != "" {
			p = prefix + "." + fieldPath(k)
		}
		if nested, ok := v.(map[string]any); ok && len(nested) > 0 {
			flatten(p, nested, out)
			continue
		}
		out[p] = v
	}
}

// findConflict returns the first pair of field paths where one is a
// strict prefix of the other (e.g. "a" and "a.b" both specified),
// which is disallowed because the server cannot tell which should
// win. Returns ("", "", false) when no conflict exists.
func findConflict(paths map[fieldPath]any) (fieldPath, fieldPath, bool) {
	ordered := make([]fieldPath, 0, len(paths))
	for p := range paths {
		ordered = append(ordered, p)
	}
	for i := range ordered {
		for j := range ordered {
			if i == j {
				continue
			}
			if ordered[i].isPrefixOf(ordered[j]) {
				return ordered[i], ordered[j], true
			}
		}
	}
	return "", "", false
}
