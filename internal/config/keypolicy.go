package config

// KeyPolicy decides how the envelope key attribute is derived. Exactly one
// policy is selected when the configuration loads.
type KeyPolicy interface {
	keyPolicy()
}

// FixedKey uses the same key for every envelope.
type FixedKey struct {
	Key string
}

// PerOutletKey looks the key up by outlet name and falls back to a
// deterministic hash for outlets without an entry.
type PerOutletKey struct {
	Keys map[string]string
	Seed string
}

// HashKey derives a name-based identifier from the seed, day, outlet and
// document tag.
type HashKey struct {
	Seed string
}

func (FixedKey) keyPolicy()     {}
func (PerOutletKey) keyPolicy() {}
func (HashKey) keyPolicy()      {}

// selectKeyPolicy applies the precedence fixed -> per outlet -> hash.
func selectKeyPolicy(raw EnvelopeKeyConfig) KeyPolicy {
	if raw.Fixed != "" {
		return FixedKey{Key: raw.Fixed}
	}
	if len(raw.ByOutlet) > 0 {
		keys := make(map[string]string, len(raw.ByOutlet))
		for outlet, key := range raw.ByOutlet {
			if key != "" {
				keys[outlet] = key
			}
		}
		return PerOutletKey{Keys: keys, Seed: raw.Seed}
	}
	return HashKey{Seed: raw.Seed}
}
