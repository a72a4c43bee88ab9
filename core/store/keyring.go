package store

import "strings"

// keySlotSuffix follows the provider name in the slot holding that
// provider's API key.
const keySlotSuffix = "_api_key"

// Keyring persists one raw API key per provider through the same KV the
// conversation tiers use. Keys are trimmed of surrounding whitespace on save,
// the usual source of mysterious 401s from pasted credentials.
type Keyring struct {
	kv KV
}

// NewKeyring returns a Keyring backed by kv.
func NewKeyring(kv KV) *Keyring {
	return &Keyring{kv: kv}
}

// APIKey returns the stored key for provider, or the empty string when none
// has been saved.
func (k *Keyring) APIKey(provider string) (string, error) {
	raw, err := k.kv.Get(provider + keySlotSuffix)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

// SetAPIKey stores the key for provider, trimmed.
func (k *Keyring) SetAPIKey(provider, key string) error {
	return k.kv.Put(provider+keySlotSuffix, []byte(strings.TrimSpace(key)))
}
