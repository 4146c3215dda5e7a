package logger

// Field is a single structured log field.
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Error creates an "error" field from err.
func Error(err error) Field {
	return Field{Key: "error", Value: err}
}

// Any creates a field holding an arbitrary value.
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}
