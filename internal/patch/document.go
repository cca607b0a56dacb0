package patch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// A patch document takes one of three shapes:
//
//  1. a mapping of table names to change lists;
//  2. a sequence of {table, changes} objects;
//  3. a single {table, changes} object.
//
// All three normalize into one ordered list of entries. Working on the
// yaml.Node tree instead of maps keeps declaration order and lets a
// mapping repeat the same table key: the change lists concatenate in
// file order instead of overwriting each other. Multi-document streams
// are processed in stream order; empty documents yield no entries.

// ParseFile loads and normalizes the patch document at path.
func ParseFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, path)
}

// Parse normalizes a patch document. The path is used in error messages
// only.
func Parse(data []byte, path string) ([]Entry, error) {
	var entries []Entry
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if len(doc.Content) == 0 {
			continue
		}
		docEntries, err := normalizeDocument(doc.Content[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		entries = append(entries, docEntries...)
	}
	return entries, nil
}

func normalizeDocument(root *yaml.Node) ([]Entry, error) {
	root = resolveAlias(root)
	switch root.Kind {
	case yaml.ScalarNode:
		if root.Tag == "!!null" {
			return nil, nil // Comment-only or empty document.
		}
		return nil, fmt.Errorf("line %d: unexpected scalar document", root.Line)
	case yaml.SequenceNode:
		var entries []Entry
		for _, item := range root.Content {
			sub, err := normalizeObject(resolveAlias(item))
			if err != nil {
				return nil, err
			}
			entries = append(entries, sub...)
		}
		return entries, nil
	case yaml.MappingNode:
		if len(root.Content) == 0 {
			return nil, nil
		}
		if hasKeys(root, "table", "changes") || hasKeys(root, "dbc", "changes") {
			return normalizeObject(root)
		}
		// Table-name mapping. Duplicate keys are legal here and
		// concatenate in order.
		var entries []Entry
		for i := 0; i+1 < len(root.Content); i += 2 {
			keyNode, valNode := root.Content[i], resolveAlias(root.Content[i+1])
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: table name must be a string", keyNode.Line)
			}
			sub, err := normalizeChangeList(keyNode.Value, valNode)
			if err != nil {
				return nil, err
			}
			entries = append(entries, sub...)
		}
		return entries, nil
	default:
		return nil, fmt.Errorf("line %d: unexpected %s document", root.Line, kindName(root.Kind))
	}
}

// normalizeObject handles a single {table, changes} object. `dbc` is
// accepted as a legacy alias for `table`.
func normalizeObject(node *yaml.Node) ([]Entry, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a patch object, got %s", node.Line, kindName(node.Kind))
	}
	var table string
	var changes *yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], resolveAlias(node.Content[i+1])
		switch key.Value {
		case "table", "dbc":
			table = val.Value
		case "changes":
			changes = val
		}
	}
	if table == "" {
		return nil, fmt.Errorf("line %d: patch object missing table name", node.Line)
	}
	if changes == nil {
		return nil, fmt.Errorf("line %d: patch object for %s missing changes", node.Line, table)
	}
	return normalizeChangeList(table, changes)
}

func normalizeChangeList(table string, node *yaml.Node) ([]Entry, error) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: changes for %s must be a sequence", node.Line, table)
	}
	entries := make([]Entry, 0, len(node.Content))
	for _, item := range node.Content {
		change, err := decodeChange(resolveAlias(item))
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", table, err)
		}
		entries = append(entries, Entry{Table: table, Change: change})
	}
	return entries, nil
}

// assignmentKeys returns the document keys recognized as the field map
// for a change kind, including the legacy alias for updates.
func assignmentKeys(kind ChangeKind) []string {
	switch kind {
	case KindUpdate:
		return []string{"fields", "updates"}
	case KindInsert:
		return []string{"values"}
	default:
		return []string{"updates"}
	}
}

func decodeChange(node *yaml.Node) (Change, error) {
	if node.Kind != yaml.MappingNode {
		return Change{}, fmt.Errorf("line %d: change must be a mapping", node.Line)
	}

	var ch Change
	var fieldsNode *yaml.Node

	// The type discriminator drives which field-map key is recognized,
	// so find it before decoding the rest.
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "type" {
			kind := ChangeKind(resolveAlias(node.Content[i+1]).Value)
			switch kind {
			case KindUpdate, KindInsert, KindCopy:
				ch.Kind = kind
			default:
				return Change{}, fmt.Errorf("line %d: unknown change type %q", node.Line, kind)
			}
		}
	}
	if ch.Kind == "" {
		return Change{}, fmt.Errorf("line %d: change missing type", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], resolveAlias(node.Content[i+1])
		switch key.Value {
		case "type":
			// Handled above.
		case "key":
			k, err := decodeKey(val)
			if err != nil {
				return Change{}, err
			}
			ch.Key = k
			ch.HasKey = true
		case "key_column":
			if val.Kind != yaml.ScalarNode {
				return Change{}, fmt.Errorf("line %d: key_column must be a scalar", val.Line)
			}
			ch.KeyColumn = NewFieldRef(val.Value)
			ch.HasKeyColumn = true
		default:
			for _, name := range assignmentKeys(ch.Kind) {
				if key.Value == name {
					fieldsNode = val
				}
			}
			// Unrecognized keys are ignored.
		}
	}

	if ch.Kind != KindInsert && !ch.HasKey {
		return Change{}, fmt.Errorf("line %d: %s change missing key", node.Line, ch.Kind)
	}

	if fieldsNode != nil {
		assigns, err := decodeAssignments(fieldsNode)
		if err != nil {
			return Change{}, err
		}
		ch.Fields = assigns
	}
	return ch, nil
}

func decodeAssignments(node *yaml.Node) ([]Assignment, error) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: field map must be a mapping", node.Line)
	}
	assigns := make([]Assignment, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: field name must be a scalar", key.Line)
		}
		value, err := decodeValue(val)
		if err != nil {
			return nil, err
		}
		assigns = append(assigns, Assignment{Field: NewFieldRef(key.Value), Value: value})
	}
	return assigns, nil
}

func decodeKey(node *yaml.Node) (uint32, error) {
	if node.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("line %d: key must be an integer", node.Line)
	}
	u, err := strconv.ParseUint(node.Value, 0, 64)
	if err != nil || u > math.MaxUint32 {
		return 0, fmt.Errorf("line %d: key %q is not a 32-bit integer", node.Line, node.Value)
	}
	return uint32(u), nil
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}

func hasKeys(node *yaml.Node, keys ...string) bool {
	for _, want := range keys {
		found := false
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
