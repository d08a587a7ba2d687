package auth

import (
	"errors"
	"strings"
)

// ErrInvalidAPIKey is returned for unknown identities and wrong secrets alike
var ErrInvalidAPIKey = errors.New("invalid api key")

// APIKeys resolves "identity:secret" keys for service callers that cannot
// hold a signed token. Only Argon2id hashes of the secrets are kept.
type APIKeys struct {
	hashes map[string]string
}

// NewAPIKeys builds a resolver from identity -> Argon2id hash
func NewAPIKeys(hashes map[string]string) *APIKeys {
	m := make(map[string]string, len(hashes))
	for identity, hash := range hashes {
		m[identity] = hash
	}
	return &APIKeys{hashes: m}
}

// Len returns the number of configured keys
func (k *APIKeys) Len() int {
	if k == nil {
		return 0
	}
	return len(k.hashes)
}

// Resolve returns the identity a key belongs to
func (k *APIKeys) Resolve(key string) (string, error) {
	identity, secret, ok := strings.Cut(key, ":")
	if !ok || identity == "" || secret == "" {
		return "", ErrInvalidAPIKey
	}

	hash, known := k.hashes[identity]
	if !known {
		return "", ErrInvalidAPIKey
	}

	match, err := VerifySecret(hash, secret)
	if err != nil || !match {
		return "", ErrInvalidAPIKey
	}
	return identity, nil
}
