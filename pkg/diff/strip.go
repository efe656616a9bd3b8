package diff

// stripFields drops the fields the spec says must never show up in a
// comparison: metadata.managedFields (server-tracked, never part of
// desired state) and an empty metadata.annotations (the PATCH path
// injects an empty map; it must not register as a change). Returns a
// shallow copy so the caller's original manifest/response is untouched.
func stripFields(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}

	metadata, ok := out["metadata"].(map[string]interface{})
	if !ok {
		return out
	}
	meta := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}
	delete(meta, "managedFields")
	if ann, ok := meta["annotations"].(map[string]interface{}); ok && len(ann) == 0 {
		delete(meta, "annotations")
	}
	out["metadata"] = meta
	return out
}
