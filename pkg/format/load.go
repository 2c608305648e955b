package format

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load decodes a DatasetFormat from YAML and validates it. An unquoted
// null_text such as NULL or ~ is kept as written rather than read as a
// YAML null.
//
// Example:
//
//	header:
//	  value_separator: ","
//	  record_separator: "\n"
//	data:
//	  value_separator: ","
//	  record_separator: "\n"
//	  quotes:
//	    - left: '"'
//	      right: '"'
//	  null_text: "NULL"
func Load(r io.Reader) (DatasetFormat, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return DatasetFormat{}, fmt.Errorf("format: empty document")
		}
		return DatasetFormat{}, fmt.Errorf("format: decode: %w", err)
	}
	keepNullText(&doc)

	// Node.Decode does not reject unknown fields, so the fixed tree goes
	// through a strict decoder again.
	raw, err := yaml.Marshal(&doc)
	if err != nil {
		return DatasetFormat{}, fmt.Errorf("format: decode: %w", err)
	}
	var d DatasetFormat
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return DatasetFormat{}, fmt.Errorf("format: decode: %w", err)
	}
	if err := d.Validate(); err != nil {
		return DatasetFormat{}, err
	}
	return d, nil
}

// keepNullText retags null_text scalars that YAML resolves to null but
// that carry text, like NULL, Null or ~.
func keepNullText(n *yaml.Node) {
	switch n.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, c := range n.Content {
			keepNullText(c)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Value == "null_text" && v.Kind == yaml.ScalarNode &&
				v.ShortTag() == "!!null" && v.Value != "" {
				v.Tag = "!!str"
				v.Style = yaml.DoubleQuotedStyle
				continue
			}
			keepNullText(v)
		}
	}
}

// LoadFile reads a DatasetFormat from a YAML file.
func LoadFile(path string) (DatasetFormat, error) {
	f, err := os.Open(path)
	if err != nil {
		return DatasetFormat{}, fmt.Errorf("format: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Marshal encodes d as YAML. String values are double quoted so separators
// made of line breaks or blanks survive a Load.
func Marshal(d DatasetFormat) ([]byte, error) {
	var n yaml.Node
	if err := n.Encode(d); err != nil {
		return nil, fmt.Errorf("format: encode: %w", err)
	}
	quoteStrings(&n)
	return yaml.Marshal(&n)
}

func quoteStrings(n *yaml.Node) {
	switch n.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, c := range n.Content {
			if c.Kind == yaml.ScalarNode {
				quoteScalar(c)
			} else {
				quoteStrings(c)
			}
		}
	case yaml.MappingNode:
		for i := 1; i < len(n.Content); i += 2 {
			v := n.Content[i]
			if v.Kind == yaml.ScalarNode {
				quoteScalar(v)
			} else {
				quoteStrings(v)
			}
		}
	}
}

func quoteScalar(n *yaml.Node) {
	if n.ShortTag() == "!!str" {
		n.Style = yaml.DoubleQuotedStyle
	}
}
