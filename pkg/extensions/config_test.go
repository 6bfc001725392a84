package extensions

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performanceConfig(interval int64, unit string) *ExtensionConfig {
	return NewExtensionConfigBuilder().
		AddCategory(NewConfigCategoryBuilder("General").
			AddValue("interval", "Sampling interval in ms", IntValue(interval)).
			AddValue("unit", "Display unit", EnumValue{Name: "Unit", Current: unit, Values: []string{"percent", "fraction"}}).
			Build()).
		AddCategory(NewConfigCategoryBuilder("Display").
			AddValue("label", "Label shown next to the value", StringValue("CPU")).
			AddValue("opacity", "Widget opacity", FloatValue(0.8)).
			AddValue("visible", "Show the widget", BoolValue(true)).
			AddValue("font", "Font file", PathValue("/usr/share/fonts/mono.ttf")).
			AddValue("thresholds", "Warning thresholds", ListValue{IntValue(50), IntValue(90)}).
			Build()).
		Build()
}

func TestExtensionConfig_JSONRoundTrip(t *testing.T) {
	cfg := performanceConfig(1000, "percent")

	data, err := cfg.ToJSON()
	require.NoError(t, err)

	decoded, err := FromJSON(data)
	require.NoError(t, err)

	assert.True(t, cfg.MatchStructure(decoded))
	assert.Equal(t, cfg, decoded)
}

func TestExtensionConfig_JSONShape(t *testing.T) {
	cfg := performanceConfig(250, "fraction")

	data, err := cfg.ToJSON()
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	categories := raw["categories"].([]interface{})
	require.Len(t, categories, 2)

	general := categories[0].(map[string]interface{})
	assert.Equal(t, "General", general["name"])

	interval := general["values"].(map[string]interface{})["interval"].(map[string]interface{})
	assert.Equal(t, "Sampling interval in ms", interval["description"])
	value := interval["value"].(map[string]interface{})
	assert.Equal(t, "int", value["type"])
	assert.Equal(t, float64(250), value["value"])

	unit := general["values"].(map[string]interface{})["unit"].(map[string]interface{})["value"].(map[string]interface{})
	assert.Equal(t, "enum", unit["type"])
	assert.Equal(t, "fraction", unit["value"].(map[string]interface{})["current"])
}

func TestFromJSON_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{
			name:   "not json",
			input:  `{categories`,
			errMsg: "failed to parse extension config",
		},
		{
			name:   "unknown type tag",
			input:  `{"categories":[{"name":"General","values":{"a":{"description":"","value":{"type":"color","value":"red"}}}}]}`,
			errMsg: `unknown config value type "color"`,
		},
		{
			name:   "payload does not match tag",
			input:  `{"categories":[{"name":"General","values":{"a":{"description":"","value":{"type":"int","value":"ten"}}}}]}`,
			errMsg: "invalid int value",
		},
		{
			name:   "missing value",
			input:  `{"categories":[{"name":"General","values":{"a":{"description":"no value"}}}]}`,
			errMsg: "missing its value",
		},
		{
			name:   "bad list item",
			input:  `{"categories":[{"name":"General","values":{"a":{"description":"","value":{"type":"list","value":[{"type":"bool","value":1}]}}}}]}`,
			errMsg: "list item 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromJSON([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestExtensionConfig_MatchStructure(t *testing.T) {
	base := performanceConfig(1000, "percent")

	tests := []struct {
		name  string
		other *ExtensionConfig
		want  bool
	}{
		{
			name:  "identical",
			other: performanceConfig(1000, "percent"),
			want:  true,
		},
		{
			name:  "different current values",
			other: performanceConfig(5, "fraction"),
			want:  true,
		},
		{
			name: "missing category",
			other: NewExtensionConfigBuilder().
				AddCategory(base.Categories[0]).
				Build(),
			want: false,
		},
		{
			name: "extra value",
			other: func() *ExtensionConfig {
				cfg := base.Clone()
				cfg.Categories[0].Values["extra"] = ConfigValue{Value: BoolValue(false)}
				return cfg
			}(),
			want: false,
		},
		{
			name: "renamed value",
			other: func() *ExtensionConfig {
				cfg := base.Clone()
				v := cfg.Categories[0].Values["interval"]
				delete(cfg.Categories[0].Values, "interval")
				cfg.Categories[0].Values["period"] = v
				return cfg
			}(),
			want: false,
		},
		{
			name: "changed kind",
			other: func() *ExtensionConfig {
				cfg := base.Clone()
				cfg.Categories[0].Values["interval"] = ConfigValue{Value: FloatValue(1000)}
				return cfg
			}(),
			want: false,
		},
		{
			name: "enum with different allowed values",
			other: func() *ExtensionConfig {
				cfg := base.Clone()
				cfg.Categories[0].Values["unit"] = ConfigValue{Value: EnumValue{Name: "Unit", Current: "percent", Values: []string{"percent"}}}
				return cfg
			}(),
			want: false,
		},
		{
			name: "enum with reordered allowed values",
			other: func() *ExtensionConfig {
				cfg := base.Clone()
				cfg.Categories[0].Values["unit"] = ConfigValue{Value: EnumValue{Name: "Unit", Current: "fraction", Values: []string{"fraction", "percent"}}}
				return cfg
			}(),
			want: true,
		},
		{
			name: "enum with different name",
			other: func() *ExtensionConfig {
				cfg := base.Clone()
				cfg.Categories[0].Values["unit"] = ConfigValue{Value: EnumValue{Name: "Scale", Current: "percent", Values: []string{"percent", "fraction"}}}
				return cfg
			}(),
			want: false,
		},
		{
			name: "list of different length",
			other: func() *ExtensionConfig {
				cfg := base.Clone()
				cfg.Categories[1].Values["thresholds"] = ConfigValue{Value: ListValue{IntValue(50)}}
				return cfg
			}(),
			want: false,
		},
		{
			name: "list with different element kind",
			other: func() *ExtensionConfig {
				cfg := base.Clone()
				cfg.Categories[1].Values["thresholds"] = ConfigValue{Value: ListValue{IntValue(50), StringValue("90")}}
				return cfg
			}(),
			want: false,
		},
		{
			name: "categories in another order",
			other: NewExtensionConfigBuilder().
				AddCategory(base.Categories[1]).
				AddCategory(base.Categories[0]).
				Build(),
			want: true,
		},
		{
			name:  "nil",
			other: nil,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.MatchStructure(tt.other))
			assert.Equal(t, tt.want, tt.other.MatchStructure(base), "match must be symmetric")
		})
	}
}

func TestExtensionConfig_MatchStructure_Nil(t *testing.T) {
	var a, b *ExtensionConfig
	assert.True(t, a.MatchStructure(b))
}

func TestExtensionConfig_Clone(t *testing.T) {
	cfg := performanceConfig(1000, "percent")
	clone := cfg.Clone()

	clone.Categories[0].Values["interval"] = ConfigValue{Value: IntValue(1)}
	clone.Categories[1].Values["thresholds"].Value.(ListValue)[0] = IntValue(1)

	v, ok := cfg.Lookup("General", "interval")
	require.True(t, ok)
	assert.Equal(t, IntValue(1000), v.Value)

	thresholds, ok := cfg.Lookup("Display", "thresholds")
	require.True(t, ok)
	assert.Equal(t, IntValue(50), thresholds.Value.(ListValue)[0])
}

func TestExtensionConfig_Lookup(t *testing.T) {
	cfg := performanceConfig(1000, "percent")

	v, ok := cfg.Lookup("Display", "label")
	assert.True(t, ok)
	assert.Equal(t, StringValue("CPU"), v.Value)

	_, ok = cfg.Lookup("Display", "missing")
	assert.False(t, ok)

	_, ok = cfg.Lookup("Missing", "label")
	assert.False(t, ok)

	var nilCfg *ExtensionConfig
	_, ok = nilCfg.Lookup("General", "interval")
	assert.False(t, ok)
}

func TestExtensionConfig_Validate(t *testing.T) {
	assert.NoError(t, performanceConfig(1000, "percent").Validate())

	err := performanceConfig(1000, "permille").Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "General.unit")

	nested := NewExtensionConfigBuilder().
		AddCategory(NewConfigCategoryBuilder("General").
			AddValue("modes", "", ListValue{EnumValue{Name: "Mode", Current: "x", Values: []string{"a"}}}).
			Build()).
		Build()
	err = nested.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 0")
}

func TestBuilders_DuplicateKeys(t *testing.T) {
	cfg := NewExtensionConfigBuilder().
		AddCategory(NewConfigCategoryBuilder("General").
			AddValue("interval", "first", IntValue(1)).
			AddValue("interval", "second", IntValue(2)).
			Build()).
		AddCategory(NewConfigCategoryBuilder("Display").Build()).
		AddCategory(NewConfigCategoryBuilder("General").
			AddValue("label", "", StringValue("x")).
			Build()).
		Build()

	require.Len(t, cfg.Categories, 2)
	assert.Equal(t, "General", cfg.Categories[0].Name)
	assert.Equal(t, "Display", cfg.Categories[1].Name)

	_, ok := cfg.Lookup("General", "interval")
	assert.False(t, ok, "replaced category should not keep old values")

	label, ok := cfg.Lookup("General", "label")
	require.True(t, ok)
	assert.Equal(t, StringValue("x"), label.Value)

	second := NewConfigCategoryBuilder("General").
		AddValue("interval", "first", IntValue(1)).
		AddValue("interval", "second", IntValue(2)).
		Build()
	assert.Equal(t, "second", second.Values["interval"].Description)
	assert.Equal(t, IntValue(2), second.Values["interval"].Value)
}

func TestEnumValue_Allows(t *testing.T) {
	e := EnumValue{Name: "Unit", Current: "percent", Values: []string{"percent", "fraction"}}
	assert.True(t, e.Allows("fraction"))
	assert.False(t, e.Allows("permille"))
}
