//go:build !js_eval

package rules

// NewJSEngine is unavailable without the js_eval build tag and returns nil.
func NewJSEngine(opts ...JSOption) Engine {
	_ = applyEngineOptions(opts)
	return nil
}

// JSAvailable reports whether the binary was built with the js_eval tag.
func JSAvailable() bool {
	return false
}
