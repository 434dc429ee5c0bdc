package config

import "os"

// ExpandEnv expands ${VAR} / $VAR references in raw YAML bytes before
// parsing. Missing variables expand to empty string; validation (not this
// function) is responsible for catching fields left empty.
func ExpandEnv(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}
