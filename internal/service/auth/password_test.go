package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(bcrypt.MinCost)

	hashed, err := hasher.Hash("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hashed)
	assert.NotEqual(t, "correct horse battery staple", hashed)

	assert.NoError(t, hasher.Compare(hashed, "correct horse battery staple"))
	assert.Error(t, hasher.Compare(hashed, "wrong password"))
}

func TestNewBcryptHasherClampsCost(t *testing.T) {
	t.Parallel()

	// Out-of-range costs fall back to the library default rather than failing
	// at hash time.
	hasher := NewBcryptHasher(99)
	hashed, err := hasher.Hash("pw")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hashed))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
