package credential

import (
	"errors"

	"go.uber.org/zap"
)

// Resolver fills in secrets that configuration left empty. A value that is
// already set (from the config file or the environment) always wins; the
// store is only consulted for blanks.
type Resolver struct {
	store SecretStore
	log   *zap.Logger
}

// NewResolver returns a resolver over store. A nil store resolves nothing.
func NewResolver(store SecretStore, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{store: store, log: log}
}

// Resolve returns current if non-empty, otherwise the secret stored under
// key, otherwise "". Store failures are logged and treated as absent so
// that a locked or missing keyring degrades to mock mode instead of
// stopping startup.
func (r *Resolver) Resolve(current, key string) string {
	if current != "" || r.store == nil {
		return current
	}

	value, err := r.store.Get(key)
	switch {
	case err == nil:
		r.log.Debug("credential loaded from keyring", zap.String("key", key))
		return value
	case errors.Is(err, ErrNotFound):
		return ""
	default:
		r.log.Warn("keyring lookup failed", zap.String("key", key), zap.Error(err))
		return ""
	}
}
