package diff

// intersect filters current down to only the fields present in
// desired: a recursive structural intersection. Maps recurse key by
// key; arrays are compared by index (no identity/merge-key matching,
// matching the spec's "arrays by index" wording); any other type pair
// keeps current's value verbatim so a literal value mismatch still
// surfaces in the subsequent YAML compare.
func intersect(current, desired map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	for k, dv := range desired {
		cv, ok := current[k]
		if !ok {
			continue
		}
		out[k] = intersectValue(cv, dv)
	}
	return out
}

func intersectValue(current, desired interface{}) interface{} {
	switch dv := desired.(type) {
	case map[string]interface{}:
		cv, ok := current.(map[string]interface{})
		if !ok {
			return current
		}
		return intersect(cv, dv)
	case []interface{}:
		cv, ok := current.([]interface{})
		if !ok {
			return current
		}
		n := len(dv)
		if len(cv) < n {
			n = len(cv)
		}
		out := make([]interface{}, n)
		for i := 0; i < n; i++ {
			out[i] = intersectValue(cv[i], dv[i])
		}
		return out
	default:
		return current
	}
}
