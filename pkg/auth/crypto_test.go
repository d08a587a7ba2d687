package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashSecret_Format(t *testing.T) {
	hash, err := HashSecret("supersecret123")
	require.NoError(t, err)

	// $argon2id$v=19$m=65536,t=1,p=4$SALT$HASH
	parts := strings.Split(hash, "$")
	require.Len(t, parts, 6)
	assert.Equal(t, "argon2id", parts[1])
	assert.Equal(t, "v=19", parts[2])
	assert.Equal(t, "m=65536,t=1,p=4", parts[3])
	assert.NotEmpty(t, parts[4])
	assert.NotEmpty(t, parts[5])

	other, err := HashSecret("supersecret123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salts must differ")
}

func TestVerifySecret(t *testing.T) {
	hash, err := HashSecret("correct horse")
	require.NoError(t, err)

	tests := []struct {
		name    string
		hash    string
		secret  string
		want    bool
		wantErr bool
	}{
		{name: "match", hash: hash, secret: "correct horse", want: true},
		{name: "mismatch", hash: hash, secret: "battery staple", want: false},
		{name: "empty secret", hash: hash, secret: "", want: false},
		{name: "garbage hash", hash: "not-a-hash", secret: "x", wantErr: true},
		{name: "wrong algorithm", hash: "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA", secret: "x", wantErr: true},
		{name: "wrong version", hash: strings.Replace(hash, "v=19", "v=16", 1), secret: "correct horse", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VerifySecret(tt.hash, tt.secret)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAPIKeys_Resolve(t *testing.T) {
	hash, err := HashSecret("s3cret")
	require.NoError(t, err)
	keys := NewAPIKeys(map[string]string{"indexer": hash})

	identity, err := keys.Resolve("indexer:s3cret")
	require.NoError(t, err)
	assert.Equal(t, "indexer", identity)

	for _, bad := range []string{"indexer:wrong", "unknown:s3cret", "indexer", ":s3cret", "indexer:"} {
		_, err := keys.Resolve(bad)
		assert.ErrorIs(t, err, ErrInvalidAPIKey, bad)
	}

	assert.Equal(t, 1, keys.Len())
	assert.Zero(t, (*APIKeys)(nil).Len())
}
