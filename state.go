package formkit

// InstanceState is the saved-state bundle carried across a host screen
// reconfiguration. Controls write their current value under their field key
// in SaveState and recover it bit-for-bit through a subsequent Init given
// the same bundle.
type InstanceState map[string]any

// NewInstanceState returns an empty saved-state bundle.
func NewInstanceState() InstanceState {
	return make(InstanceState)
}

// Has reports whether a key was saved.
func (s InstanceState) Has(key string) bool {
	if s == nil {
		return false
	}
	_, ok := s[key]
	return ok
}

// Get returns the raw saved value for a key.
func (s InstanceState) Get(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s[key]
	return v, ok
}

// Put stores a value under a key. Nil values are stored as explicit nils so
// that a saved "no value" survives the round trip.
func (s InstanceState) Put(key string, value any) {
	s[key] = value
}

// GetString returns a saved string value.
func (s InstanceState) GetString(key string) (string, bool) {
	v, ok := s.Get(key)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// GetInt64 returns a saved integer value.
func (s InstanceState) GetInt64(key string) (int64, bool) {
	v, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

// GetFloat64 returns a saved real value.
func (s InstanceState) GetFloat64(key string) (float64, bool) {
	v, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

// GetBool returns a saved boolean value.
func (s InstanceState) GetBool(key string) (bool, bool) {
	v, ok := s.Get(key)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Merge copies every entry of other into s.
func (s InstanceState) Merge(other InstanceState) {
	for k, v := range other {
		s[k] = v
	}
}
