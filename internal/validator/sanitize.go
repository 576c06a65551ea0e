package validator

// Keys that enable prototype-pollution attacks when attacker JSON is
// merged into schema compilation or used as a lookup key upstream.
// Stripped unconditionally from every inbound object.
var dangerousKeys = map[string]bool{
	"__proto__":   true,
	"constructor": true,
	"prototype":   true,
}

// SanitizeObject returns a shallow copy of v with dangerous keys
// removed, or nil if v is not a plain JSON object. Arrays, scalars and
// nil all yield nil: callers must treat that as "not an object".
func SanitizeObject(v any) map[string]any {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	clean := make(map[string]any, len(obj))
	for k, val := range obj {
		if dangerousKeys[k] {
			continue
		}
		clean[k] = val
	}
	return clean
}
