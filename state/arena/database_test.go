package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemDBIteratePrefixScansInOrder(t *testing.T) {
	db := NewMemDB()
	require.NoError(t, db.Put([]byte("arena/0xA"), []byte("a")))
	require.NoError(t, db.Put([]byte("arena/0xB"), []byte("b")))
	require.NoError(t, db.Put([]byte("leaderboard/0xC"), []byte("c")))

	var keys []string
	err := db.Iterate([]byte("arena/"), func(key, value []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"arena/0xA", "arena/0xB"}, keys)
}

func TestMemDBIteratePropagatesCallbackError(t *testing.T) {
	db := NewMemDB()
	require.NoError(t, db.Put([]byte("arena/0xA"), []byte("a")))

	boom := errBoom{}
	err := db.Iterate([]byte("arena/"), func(key, value []byte) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
