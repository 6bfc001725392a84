package extensions

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ValueKind identifies the variant of a ConfigValueType
type ValueKind string

const (
	KindString ValueKind = "string"
	KindFloat  ValueKind = "float"
	KindInt    ValueKind = "int"
	KindBool   ValueKind = "bool"
	KindList   ValueKind = "list"
	KindEnum   ValueKind = "enum"
	KindPath   ValueKind = "path"
)

// ConfigValueType is the closed set of typed configuration payloads.
// Only the types declared in this file implement it.
type ConfigValueType interface {
	Kind() ValueKind
	isConfigValueType()
}

// StringValue is a free-form string setting
type StringValue string

// FloatValue is a floating point setting
type FloatValue float64

// IntValue is an integer setting
type IntValue int64

// BoolValue is a toggle setting
type BoolValue bool

// ListValue is an ordered list of typed settings
type ListValue []ConfigValueType

// PathValue is a filesystem path setting
type PathValue string

// EnumValue is a choice among a fixed set of named values.
// Current should be one of Values; see ExtensionConfig.Validate.
type EnumValue struct {
	Name    string   `json:"name"`
	Current string   `json:"current"`
	Values  []string `json:"values"`
}

func (StringValue) Kind() ValueKind { return KindString }
func (FloatValue) Kind() ValueKind  { return KindFloat }
func (IntValue) Kind() ValueKind    { return KindInt }
func (BoolValue) Kind() ValueKind   { return KindBool }
func (ListValue) Kind() ValueKind   { return KindList }
func (EnumValue) Kind() ValueKind   { return KindEnum }
func (PathValue) Kind() ValueKind   { return KindPath }

func (StringValue) isConfigValueType() {}
func (FloatValue) isConfigValueType()  {}
func (IntValue) isConfigValueType()    {}
func (BoolValue) isConfigValueType()   {}
func (ListValue) isConfigValueType()   {}
func (EnumValue) isConfigValueType()   {}
func (PathValue) isConfigValueType()   {}

// Allows reports whether v is one of the enum's allowed values
func (e EnumValue) Allows(v string) bool {
	for _, allowed := range e.Values {
		if allowed == v {
			return true
		}
	}
	return false
}

// ConfigValue is a described, typed configuration entry
type ConfigValue struct {
	Description string          `json:"description"`
	Value       ConfigValueType `json:"value"`
}

// ConfigCategory groups named values under a category name
type ConfigCategory struct {
	Name   string                 `json:"name"`
	Values map[string]ConfigValue `json:"values"`
}

// Value returns a named value of the category
func (c *ConfigCategory) Value(name string) (ConfigValue, bool) {
	v, ok := c.Values[name]
	return v, ok
}

// ExtensionConfig is the typed configuration schema and values of an extension
type ExtensionConfig struct {
	Categories []ConfigCategory `json:"categories"`
}

// Category returns the category with the given name, or nil
func (c *ExtensionConfig) Category(name string) *ConfigCategory {
	if c == nil {
		return nil
	}
	for i := range c.Categories {
		if c.Categories[i].Name == name {
			return &c.Categories[i]
		}
	}
	return nil
}

// Lookup returns the value stored at category/name
func (c *ExtensionConfig) Lookup(category, name string) (ConfigValue, bool) {
	cat := c.Category(category)
	if cat == nil {
		return ConfigValue{}, false
	}
	return cat.Value(name)
}

// ToJSON serializes the config as indented JSON
func (c *ExtensionConfig) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extension config: %w", err)
	}
	return data, nil
}

// FromJSON parses a config previously produced by ToJSON
func FromJSON(data []byte) (*ExtensionConfig, error) {
	var cfg ExtensionConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse extension config: %w", err)
	}
	return &cfg, nil
}

// Clone returns a deep copy of the config
func (c *ExtensionConfig) Clone() *ExtensionConfig {
	if c == nil {
		return nil
	}
	out := &ExtensionConfig{Categories: make([]ConfigCategory, len(c.Categories))}
	for i, cat := range c.Categories {
		values := make(map[string]ConfigValue, len(cat.Values))
		for name, v := range cat.Values {
			values[name] = ConfigValue{Description: v.Description, Value: cloneValueType(v.Value)}
		}
		out.Categories[i] = ConfigCategory{Name: cat.Name, Values: values}
	}
	return out
}

// MatchStructure reports whether both configs have the same shape: the same
// category names, the same value names per category and type-compatible values.
// Current values are ignored.
func (c *ExtensionConfig) MatchStructure(other *ExtensionConfig) bool {
	if c == nil || other == nil {
		return c == nil && other == nil
	}

	mine := categoriesByName(c)
	theirs := categoriesByName(other)
	if len(mine) != len(theirs) {
		return false
	}

	for name, cat := range mine {
		otherCat, ok := theirs[name]
		if !ok {
			return false
		}
		if !categoryStructureMatches(cat, otherCat) {
			return false
		}
	}

	return true
}

// Validate reports enum values whose current value is not allowed
func (c *ExtensionConfig) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	for _, cat := range c.Categories {
		for name, v := range cat.Values {
			if err := validateValueType(v.Value); err != nil {
				errs = append(errs, fmt.Errorf("%s.%s: %w", cat.Name, name, err))
			}
		}
	}
	return errors.Join(errs...)
}

func validateValueType(v ConfigValueType) error {
	switch tv := v.(type) {
	case EnumValue:
		if !tv.Allows(tv.Current) {
			return fmt.Errorf("enum %s: %q is not one of %v", tv.Name, tv.Current, tv.Values)
		}
	case ListValue:
		for i, item := range tv {
			if err := validateValueType(item); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	case nil:
		return fmt.Errorf("missing value")
	}
	return nil
}

func categoriesByName(c *ExtensionConfig) map[string]*ConfigCategory {
	out := make(map[string]*ConfigCategory, len(c.Categories))
	for i := range c.Categories {
		out[c.Categories[i].Name] = &c.Categories[i]
	}
	return out
}

func categoryStructureMatches(a, b *ConfigCategory) bool {
	if len(a.Values) != len(b.Values) {
		return false
	}
	for name, v := range a.Values {
		other, ok := b.Values[name]
		if !ok {
			return false
		}
		if !typesCompatible(v.Value, other.Value) {
			return false
		}
	}
	return true
}

func typesCompatible(a, b ConfigValueType) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch av := a.(type) {
	case ListValue:
		bv, ok := b.(ListValue)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !typesCompatible(av[i], bv[i]) {
				return false
			}
		}
	case EnumValue:
		bv, ok := b.(EnumValue)
		if !ok {
			return false
		}
		return av.Name == bv.Name && sameSet(av.Values, bv.Values)
	}

	return true
}

func sameSet(a, b []string) bool {
	setA := make(map[string]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, v := range b {
		setB[v] = struct{}{}
	}
	if len(setA) != len(setB) {
		return false
	}
	for v := range setA {
		if _, ok := setB[v]; !ok {
			return false
		}
	}
	return true
}

func cloneValueType(v ConfigValueType) ConfigValueType {
	switch tv := v.(type) {
	case ListValue:
		if tv == nil {
			return ListValue(nil)
		}
		out := make(ListValue, len(tv))
		for i, item := range tv {
			out[i] = cloneValueType(item)
		}
		return out
	case EnumValue:
		tv.Values = append([]string(nil), tv.Values...)
		return tv
	default:
		return v
	}
}

// taggedValue is the wire form of a ConfigValueType
type taggedValue struct {
	Type  ValueKind       `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the value with its type tag
func (v ConfigValue) MarshalJSON() ([]byte, error) {
	tagged, err := encodeTagged(v.Value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Description string      `json:"description"`
		Value       taggedValue `json:"value"`
	}{Description: v.Description, Value: tagged})
}

// UnmarshalJSON decodes a tagged value
func (v *ConfigValue) UnmarshalJSON(data []byte) error {
	var raw struct {
		Description string       `json:"description"`
		Value       *taggedValue `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Value == nil {
		return fmt.Errorf("config value is missing its value")
	}

	decoded, err := decodeTagged(*raw.Value)
	if err != nil {
		return err
	}

	v.Description = raw.Description
	v.Value = decoded
	return nil
}

// MarshalJSON encodes every list item with its type tag
func (l ListValue) MarshalJSON() ([]byte, error) {
	items := make([]taggedValue, 0, len(l))
	for i, item := range l {
		tagged, err := encodeTagged(item)
		if err != nil {
			return nil, fmt.Errorf("list item %d: %w", i, err)
		}
		items = append(items, tagged)
	}
	return json.Marshal(items)
}

// UnmarshalJSON decodes a list of tagged items
func (l *ListValue) UnmarshalJSON(data []byte) error {
	var items []taggedValue
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(ListValue, 0, len(items))
	for i, item := range items {
		decoded, err := decodeTagged(item)
		if err != nil {
			return fmt.Errorf("list item %d: %w", i, err)
		}
		out = append(out, decoded)
	}
	*l = out
	return nil
}

func encodeTagged(v ConfigValueType) (taggedValue, error) {
	if v == nil {
		return taggedValue{}, fmt.Errorf("config value has no type")
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return taggedValue{}, fmt.Errorf("failed to marshal %s value: %w", v.Kind(), err)
	}
	return taggedValue{Type: v.Kind(), Value: payload}, nil
}

func decodeTagged(tv taggedValue) (ConfigValueType, error) {
	if len(tv.Value) == 0 {
		return nil, fmt.Errorf("%s value is missing its payload", tv.Type)
	}

	var (
		out ConfigValueType
		err error
	)

	switch tv.Type {
	case KindString:
		var s string
		err = json.Unmarshal(tv.Value, &s)
		out = StringValue(s)
	case KindFloat:
		var f float64
		err = json.Unmarshal(tv.Value, &f)
		out = FloatValue(f)
	case KindInt:
		var i int64
		err = json.Unmarshal(tv.Value, &i)
		out = IntValue(i)
	case KindBool:
		var b bool
		err = json.Unmarshal(tv.Value, &b)
		out = BoolValue(b)
	case KindList:
		var l ListValue
		err = json.Unmarshal(tv.Value, &l)
		out = l
	case KindEnum:
		var e EnumValue
		err = json.Unmarshal(tv.Value, &e)
		out = e
	case KindPath:
		var p string
		err = json.Unmarshal(tv.Value, &p)
		out = PathValue(p)
	default:
		return nil, fmt.Errorf("unknown config value type %q", tv.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("invalid %s value: %w", tv.Type, err)
	}
	return out, nil
}
