package algorithms

import "fmt"

// Params come from YAML (ints and floats) or code (float64). These helpers
// accept any numeric form.

func numberParam(params map[string]interface{}, key string) (float64, bool) {
	val, ok := params[key]
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

func floatParam(params map[string]interface{}, key string, def float64) float64 {
	if v, ok := numberParam(params, key); ok {
		return v
	}
	return def
}

func intParam(params map[string]interface{}, key string, def int) int {
	if v, ok := numberParam(params, key); ok {
		return int(v)
	}
	return def
}

func boolParam(params map[string]interface{}, key string, def bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}

// checkRange validates an optional numeric param
func checkRange(params map[string]interface{}, key string, min, max float64) error {
	val, present := params[key]
	if !present {
		return nil
	}
	v, ok := numberParam(params, key)
	if !ok {
		return fmt.Errorf("%s must be a number, got %T", key, val)
	}
	if v < min || v > max {
		return fmt.Errorf("%s must be between %g and %g", key, min, max)
	}
	return nil
}

func checkBool(params map[string]interface{}, key string) error {
	val, present := params[key]
	if !present {
		return nil
	}
	if _, ok := val.(bool); !ok {
		return fmt.Errorf("%s must be a bool, got %T", key, val)
	}
	return nil
}
