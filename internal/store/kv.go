// Package store persists the autosaved session and the saved-designs list
// through a string key-value store.
package store

import (
	"context"
	"strings"
)

// KV is a string key to string value store. Get reports false for a
// missing key.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

type namespaced struct {
	kv     KV
	prefix string
}

// Namespace scopes every key of kv under ns, so users sharing one backing
// store never see each other's records.
func Namespace(kv KV, ns string) KV {
	return &namespaced{kv: kv, prefix: ns + ":"}
}

func (n *namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	return n.kv.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key, value string) error {
	return n.kv.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.kv.Delete(ctx, n.prefix+key)
}

func (n *namespaced) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := n.kv.Keys(ctx, n.prefix+prefix)
	if err != nil {
		return nil, err
	}
	for i, k := range keys {
		keys[i] = strings.TrimPrefix(k, n.prefix)
	}
	return keys, nil
}
