// Package engine scans raw JSON tokens for problems that are lost once a
// document is decoded into a map.
package engine

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"
)

// Duplicate is an object key that occurs more than once in the same object.
type Duplicate struct {
	Path string // dotted location of the object holding Key; empty for the root
	Key  string
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	loc          []string
	keys         map[string]struct{}
	expectingKey bool
	key          string
	index        int
}

// DuplicateKeys scans data and reports every repeated key in document
// order. maxDups > 0 stops the scan after that many findings.
func DuplicateKeys(data []byte, maxDups int) ([]Duplicate, error) {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var (
		dups  []Duplicate
		stack []*frame
	)
	valueDone := func() {
		if len(stack) == 0 {
			return
		}
		top := stack[len(stack)-1]
		if top.kind == kindObject {
			top.expectingKey = true
		} else {
			top.index++
		}
	}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return dups, nil
		}
		if err != nil {
			return dups, err
		}
		switch v := tok.(type) {
		case j.Delim:
			switch v {
			case '{', '[':
				f := &frame{kind: kindArray, loc: location(stack)}
				if v == '{' {
					f.kind, f.keys, f.expectingKey = kindObject, map[string]struct{}{}, true
				}
				stack = append(stack, f)
			case '}', ']':
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
				valueDone()
			}
		case string:
			if n := len(stack); n > 0 && stack[n-1].kind == kindObject && stack[n-1].expectingKey {
				top := stack[n-1]
				if _, seen := top.keys[v]; seen {
					dups = append(dups, Duplicate{Path: strings.Join(top.loc, "."), Key: v})
					if maxDups > 0 && len(dups) >= maxDups {
						return dups, nil
					}
				}
				top.keys[v] = struct{}{}
				top.key = v
				top.expectingKey = false
				continue
			}
			valueDone()
		default:
			valueDone()
		}
	}
}

// location returns the path of a container about to be opened inside stack.
func location(stack []*frame) []string {
	loc := make([]string, 0, len(stack))
	for _, f := range stack {
		if f.kind == kindObject {
			loc = append(loc, f.key)
		} else {
			loc = append(loc, strconv.Itoa(f.index))
		}
	}
	return loc
}
