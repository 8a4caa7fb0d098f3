package model

import (
	"strconv"

	"gopkg.in/yaml.v3"
)

// Flag is a YAML boolean that remembers malformed input so validation can
// report it instead of failing the whole decode.
type Flag struct {
	set   bool
	ok    bool
	value bool
	raw   string
}

// NewFlag returns a set, well-typed Flag.
func NewFlag(v bool) Flag {
	return Flag{set: true, ok: true, value: v, raw: strconv.FormatBool(v)}
}

// RawFlag returns a set Flag holding an arbitrary scalar, as a decoder would
// for input such as `enabled: "yes"`.
func RawFlag(raw string) Flag {
	return Flag{set: true, raw: raw}
}

func (f *Flag) UnmarshalYAML(n *yaml.Node) error {
	*f = Flag{set: true, raw: scalarText(n)}
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!bool" {
		var v bool
		if err := n.Decode(&v); err == nil {
			f.ok = true
			f.value = v
		}
	}
	return nil
}

func (f Flag) MarshalYAML() (any, error) {
	if f.ok {
		return f.value, nil
	}
	return f.raw, nil
}

// IsSet reports whether the key was present with a non-null value.
func (f Flag) IsSet() bool { return f.set }

// Valid reports whether the flag is either unset or a real boolean.
func (f Flag) Valid() bool { return !f.set || f.ok }

// Raw returns the scalar text as written.
func (f Flag) Raw() string { return f.raw }

// Bool returns the value and whether it is a set, well-typed boolean.
func (f Flag) Bool() (bool, bool) { return f.value, f.set && f.ok }

// Value returns the boolean, or def when unset or malformed.
func (f Flag) Value(def bool) bool {
	if f.set && f.ok {
		return f.value
	}
	return def
}

// Int is a YAML integer that keeps malformed input for validation.
type Int struct {
	set   bool
	ok    bool
	value int
	raw   string
}

// NewInt returns a set, well-typed Int.
func NewInt(v int) Int {
	return Int{set: true, ok: true, value: v, raw: strconv.Itoa(v)}
}

// RawInt returns a set Int holding an arbitrary scalar.
func RawInt(raw string) Int {
	return Int{set: true, raw: raw}
}

func (i *Int) UnmarshalYAML(n *yaml.Node) error {
	*i = Int{set: true, raw: scalarText(n)}
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!int" {
		var v int
		if err := n.Decode(&v); err == nil {
			i.ok = true
			i.value = v
		}
	}
	return nil
}

func (i Int) MarshalYAML() (any, error) {
	if i.ok {
		return i.value, nil
	}
	return i.raw, nil
}

func (i Int) IsSet() bool      { return i.set }
func (i Int) Valid() bool      { return !i.set || i.ok }
func (i Int) Raw() string      { return i.raw }
func (i Int) Get() (int, bool) { return i.value, i.set && i.ok }

// Scalar is an untyped YAML scalar. It carries the resolved tag so that
// fields accepting either a boolean or a keyword can be checked.
type Scalar struct {
	set bool
	tag string
	raw string
}

// NewScalar builds a Scalar as the decoder would for the given YAML text.
func NewScalar(raw string) Scalar {
	var n yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &n); err == nil && len(n.Content) == 1 {
		return Scalar{set: true, tag: n.Content[0].ShortTag(), raw: n.Content[0].Value}
	}
	return Scalar{set: true, tag: "!!str", raw: raw}
}

func (s *Scalar) UnmarshalYAML(n *yaml.Node) error {
	tag := n.ShortTag()
	if n.Kind != yaml.ScalarNode {
		tag = "!!" + kindName(n.Kind)
	}
	*s = Scalar{set: true, tag: tag, raw: n.Value}
	return nil
}

func (s Scalar) MarshalYAML() (any, error) {
	if s.tag == "!!bool" {
		return s.raw == "true", nil
	}
	return s.raw, nil
}

func (s Scalar) IsSet() bool    { return s.set }
func (s Scalar) Tag() string    { return s.tag }
func (s Scalar) String() string { return s.raw }

// IsBool reports whether the scalar decoded as a YAML boolean.
func (s Scalar) IsBool() bool { return s.tag == "!!bool" }

// Ports is either the keyword "all" or a list of port numbers.
type Ports struct {
	set     bool
	All     bool
	List    []Int
	badForm string
}

// AllPorts returns the "all" form.
func AllPorts() Ports { return Ports{set: true, All: true} }

// PortList returns a list form of well-typed ports.
func PortList(ports ...int) Ports {
	p := Ports{set: true}
	for _, v := range ports {
		p.List = append(p.List, NewInt(v))
	}
	return p
}

func (p *Ports) UnmarshalYAML(n *yaml.Node) error {
	*p = Ports{set: true}
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Value == "all" {
			p.All = true
			return nil
		}
		p.badForm = n.Value
	case yaml.SequenceNode:
		for _, item := range n.Content {
			var v Int
			if item.Kind == yaml.ScalarNode {
				if err := item.Decode(&v); err != nil {
					return err
				}
			} else {
				v = RawInt("<" + kindName(item.Kind) + ">")
			}
			p.List = append(p.List, v)
		}
	default:
		p.badForm = "<" + kindName(n.Kind) + ">"
	}
	return nil
}

func (p Ports) MarshalYAML() (any, error) {
	if p.All {
		return "all", nil
	}
	if p.badForm != "" {
		return p.badForm, nil
	}
	out := make([]any, 0, len(p.List))
	for _, v := range p.List {
		if n, ok := v.Get(); ok {
			out = append(out, n)
		} else {
			out = append(out, v.Raw())
		}
	}
	return out, nil
}

func (p Ports) IsSet() bool { return p.set }

// Malformed returns the offending text when the value was neither "all" nor a list.
func (p Ports) Malformed() (string, bool) { return p.badForm, p.badForm != "" }

func scalarText(n *yaml.Node) string {
	if n.Kind == yaml.ScalarNode {
		return n.Value
	}
	return "<" + kindName(n.Kind) + ">"
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return "scalar"
	}
}
