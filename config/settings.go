// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package config

// LookupFunc reads a single environment variable. os.LookupEnv satisfies it.
type LookupFunc func(name string) (string, bool)

// MapLookup adapts a plain map of environment variables to a LookupFunc.
func MapLookup(env map[string]string) LookupFunc {
	return func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
}

// Layered returns a LookupFunc that consults each source in order and returns
// the first non-empty value.
func Layered(sources ...LookupFunc) LookupFunc {
	return func(name string) (string, bool) {
		for _, source := range sources {
			if source == nil {
				continue
			}
			if v, ok := source(name); ok && v != "" {
				return v, true
			}
		}
		return "", false
	}
}

// RawSettings is the aggregated key to raw value mapping. A key that is not
// present is absent, which is distinct from being set to an empty string.
// RawSettings is read-only once built.
type RawSettings struct {
	values map[Key]string
}

// Get returns the raw value for k and whether it is present.
func (r RawSettings) Get(k Key) (string, bool) {
	v, ok := r.values[k]
	return v, ok
}

// Has reports whether k is present.
func (r RawSettings) Has(k Key) bool {
	_, ok := r.values[k]
	return ok
}

// len returns the number of present keys.
func (r RawSettings) len() int {
	return len(r.values)
}

// Aggregate collects every recognized key from the invocation params and the
// environment. A non-empty invocation param wins over a non-empty environment
// value; otherwise the key is absent. Unrecognized param keys are ignored.
func Aggregate(params map[string]string, env LookupFunc) RawSettings {
	values := make(map[Key]string, len(knownKeys))
	for _, d := range knownKeys {
		if v, ok := params[string(d.key)]; ok && v != "" {
			values[d.key] = v
			continue
		}
		if env == nil {
			continue
		}
		if v, ok := env(d.key.EnvName()); ok && v != "" {
			values[d.key] = v
		}
	}
	return RawSettings{values: values}
}
