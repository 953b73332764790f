package jcursor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// yamlCodec loads YAML into ordered documents. Input holding more than one
// document loads as an A of documents.
type yamlCodec struct{}

func (yamlCodec) Load(v any) (any, error) {
	src, ok := textBytes(v)
	if !ok {
		return nil, decodeErr("yaml", fmt.Errorf("expected text, got %T", v))
	}
	docs, err := parseYAMLDocuments(src)
	if err != nil {
		return nil, decodeErr("yaml", err)
	}
	switch len(docs) {
	case 0:
		return nil, nil
	case 1:
		return docs[0], nil
	}
	return A(docs), nil
}

func (yamlCodec) Dump(v any) (any, error) {
	node, err := encodeYAMLNode(v, walkPath{})
	if err != nil {
		return nil, encodeErr("yaml", err)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, encodeErr("yaml", err)
	}
	if err := enc.Close(); err != nil {
		return nil, encodeErr("yaml", err)
	}
	return buf.String(), nil
}

func parseYAMLDocuments(src []byte) ([]any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(src))
	var docs []any
	for {
		var root yaml.Node
		err := dec.Decode(&root)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		node := &root
		if node.Kind == yaml.DocumentNode {
			if len(node.Content) == 0 {
				docs = append(docs, nil)
				continue
			}
			node = node.Content[0]
		}
		v, err := decodeYAMLNode(node)
		if err != nil {
			return nil, err
		}
		docs = append(docs, v)
	}
}

func decodeYAMLNode(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.MappingNode:
		entries := make(D, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valNode := node.Content[i], node.Content[i+1]
			if keyNode.Tag == "!!merge" {
				merged, err := decodeYAMLNode(valNode)
				if err != nil {
					return nil, err
				}
				entries = mergeYAMLKeys(entries, merged)
				continue
			}
			value, err := decodeYAMLNode(valNode)
			if err != nil {
				return nil, err
			}
			entries = entries.set(keyNode.Value, value)
		}
		return entries, nil
	case yaml.SequenceNode:
		list := make(A, 0, len(node.Content))
		for _, c := range node.Content {
			value, err := decodeYAMLNode(c)
			if err != nil {
				return nil, err
			}
			list = append(list, value)
		}
		return list, nil
	case yaml.AliasNode:
		if node.Alias != nil {
			return decodeYAMLNode(node.Alias)
		}
		return nil, nil
	default:
		var value any
		if err := node.Decode(&value); err != nil {
			return node.Value, nil
		}
		return value, nil
	}
}

// mergeYAMLKeys applies a "<<" merge: keys already present win.
func mergeYAMLKeys(dst D, merged any) D {
	var sources []any
	if a, ok := merged.(A); ok {
		sources = a
	} else {
		sources = []any{merged}
	}
	for _, src := range sources {
		d, ok := src.(D)
		if !ok {
			continue
		}
		for _, e := range d {
			if _, exists := dst.Lookup(e.Key); !exists {
				dst = append(dst, e)
			}
		}
	}
	return dst
}

// encodeYAMLNode builds a node tree for v so that D keeps its key order.
func encodeYAMLNode(v any, w walkPath) (*yaml.Node, error) {
	leave, err := w.enter(v)
	if err != nil {
		return nil, err
	}
	defer leave()

	switch c := v.(type) {
	case D:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, e := range c {
			if err := appendYAMLPair(n, e.Key, e.Value, w); err != nil {
				return nil, err
			}
		}
		return n, nil
	case map[string]any:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		keys, _ := childKeys(c)
		for _, k := range keys {
			if err := appendYAMLPair(n, k, c[k], w); err != nil {
				return nil, err
			}
		}
		return n, nil
	case A:
		return encodeYAMLSequence(c, w)
	case []any:
		return encodeYAMLSequence(c, w)
	case []byte:
		return encodeYAMLNode(string(c), w)
	case time.Time:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!timestamp", Value: c.Format(isoLayout)}, nil
	}
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}

func appendYAMLPair(n *yaml.Node, key string, v any, w walkPath) error {
	val, err := encodeYAMLNode(v, w)
	if err != nil {
		return fmt.Errorf("key %q: %w", key, err)
	}
	n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, val)
	return nil
}

func encodeYAMLSequence(items []any, w walkPath) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: make([]*yaml.Node, 0, len(items))}
	for i, item := range items {
		child, err := encodeYAMLNode(item, w)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		n.Content = append(n.Content, child)
	}
	return n, nil
}
