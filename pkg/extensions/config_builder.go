package extensions

// ExtensionConfigBuilder accumulates categories into an ExtensionConfig.
// Adding a category whose name already exists replaces it in place.
type ExtensionConfigBuilder struct {
	categories []ConfigCategory
}

// NewExtensionConfigBuilder creates an empty builder
func NewExtensionConfigBuilder() *ExtensionConfigBuilder {
	return &ExtensionConfigBuilder{}
}

// AddCategory appends a category
func (b *ExtensionConfigBuilder) AddCategory(category ConfigCategory) *ExtensionConfigBuilder {
	for i := range b.categories {
		if b.categories[i].Name == category.Name {
			b.categories[i] = category
			return b
		}
	}
	b.categories = append(b.categories, category)
	return b
}

// Build returns the accumulated config
func (b *ExtensionConfigBuilder) Build() *ExtensionConfig {
	cfg := &ExtensionConfig{Categories: make([]ConfigCategory, len(b.categories))}
	copy(cfg.Categories, b.categories)
	return cfg
}

// ConfigCategoryBuilder accumulates named values into a ConfigCategory.
// Adding a value whose name already exists overwrites it.
type ConfigCategoryBuilder struct {
	name   string
	values map[string]ConfigValue
}

// NewConfigCategoryBuilder creates a builder for the named category
func NewConfigCategoryBuilder(name string) *ConfigCategoryBuilder {
	return &ConfigCategoryBuilder{
		name:   name,
		values: make(map[string]ConfigValue),
	}
}

// AddValue sets a named value
func (b *ConfigCategoryBuilder) AddValue(name, description string, value ConfigValueType) *ConfigCategoryBuilder {
	b.values[name] = ConfigValue{Description: description, Value: value}
	return b
}

// Build returns the accumulated category
func (b *ConfigCategoryBuilder) Build() ConfigCategory {
	values := make(map[string]ConfigValue, len(b.values))
	for k, v := range b.values {
		values[k] = v
	}
	return ConfigCategory{Name: b.name, Values: values}
}
