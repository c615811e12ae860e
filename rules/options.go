package rules

// engineConfig is the configuration shared by every engine.
type engineConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

func (c *engineConfig) useRegistry(registry *FunctionRegistry) {
	if registry != nil {
		c.registry = registry.Clone()
	}
}

// ExprOption configures the expr engine.
type ExprOption func(*engineConfig)

// CELOption configures the CEL engine. Registry functions are declared with
// one to three dynamic arguments.
type CELOption func(*engineConfig)

// JSOption configures the goja engine.
type JSOption func(*engineConfig)

// ExprWithProgramCache caches compiled expr programs in cache.
func ExprWithProgramCache(cache ProgramCache) ExprOption {
	return func(c *engineConfig) { c.cache = cache }
}

// ExprWithFunctionRegistry exposes a copy of registry to expr rules.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprOption {
	return func(c *engineConfig) { c.useRegistry(registry) }
}

// CELWithProgramCache caches compiled CEL programs in cache.
func CELWithProgramCache(cache ProgramCache) CELOption {
	return func(c *engineConfig) { c.cache = cache }
}

// CELWithFunctionRegistry exposes a copy of registry to CEL rules.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELOption {
	return func(c *engineConfig) { c.useRegistry(registry) }
}

// JSWithProgramCache caches compiled goja programs in cache.
func JSWithProgramCache(cache ProgramCache) JSOption {
	return func(c *engineConfig) { c.cache = cache }
}

// JSWithFunctionRegistry exposes a copy of registry to JS rules.
func JSWithFunctionRegistry(registry *FunctionRegistry) JSOption {
	return func(c *engineConfig) { c.useRegistry(registry) }
}

func applyEngineOptions[O ~func(*engineConfig)](opts []O) engineConfig {
	cfg := engineConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
