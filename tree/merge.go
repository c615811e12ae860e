package tree

// Merge composes canonical trees ordered from strongest to weakest, returning a
// new tree that keeps values from stronger layers while filling any missing
// record keys from weaker ones. Sequences are never merged element-wise: the
// strongest non-nil sequence wins as a whole.
func Merge(layers ...any) any {
	if len(layers) == 0 {
		return nil
	}
	merged := Clone(layers[len(layers)-1])
	for i := len(layers) - 2; i >= 0; i-- {
		merged = mergeValue(layers[i], merged)
	}
	return merged
}

func mergeValue(strong, weak any) any {
	if strong == nil {
		return Clone(weak)
	}
	strongMap, ok := strong.(map[string]any)
	if !ok {
		return Clone(strong)
	}
	weakMap, _ := weak.(map[string]any)
	result := make(map[string]any, len(strongMap)+len(weakMap))
	for key, value := range weakMap {
		result[key] = Clone(value)
	}
	for key, value := range strongMap {
		if existing, ok := result[key]; ok {
			result[key] = mergeValue(value, existing)
			continue
		}
		result[key] = Clone(value)
	}
	return result
}
