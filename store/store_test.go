package store_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/openweb3-io/pkpkit/store"
	"github.com/openweb3-io/pkpkit/types"
	"github.com/stretchr/testify/suite"
)

func newBinding(id string) *types.Binding {
	return &types.Binding{
		User: types.UserInfo{ID: id, Name: "Test " + id, Email: id + "@example.com"},
		PKP: types.PKP{
			TokenID:   types.TokenID("0xabc" + id),
			PublicKey: "0x04deadbeef" + id,
			Address:   types.Address("0x50B0c2B3bcAd53Eb45B57C4e5dF8a9890d002Cc8"),
		},
		CreatedAt: time.Now().UTC(),
	}
}

type StoreTestSuite struct {
	suite.Suite
}

func TestStore(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) openStores() map[string]store.Store {
	fileStore, err := store.NewFileStore(filepath.Join(s.T().TempDir(), "bindings.json"))
	s.Require().NoError(err)
	return map[string]store.Store{
		"file":   fileStore,
		"memory": store.NewMemStore(),
	}
}

func (s *StoreTestSuite) TestGetMissing() {
	require := s.Require()
	for name, st := range s.openStores() {
		_, err := st.Get("nobody")
		require.ErrorIs(err, store.ErrNotFound, name)
		require.NoError(st.Close(), name)
	}
}

func (s *StoreTestSuite) TestPutGetRoundTrip() {
	require := s.Require()
	for name, st := range s.openStores() {
		binding := newBinding("alice")
		require.NoError(st.Put(binding), name)

		got, err := st.Get("alice")
		require.NoError(err, name)
		require.Equal(binding.User, got.User, name)
		require.Equal(binding.PKP, got.PKP, name)
		require.NoError(st.Close(), name)
	}
}

func (s *StoreTestSuite) TestPutDuplicateRejected() {
	require := s.Require()
	for name, st := range s.openStores() {
		require.NoError(st.Put(newBinding("alice")), name)
		require.ErrorIs(st.Put(newBinding("alice")), store.ErrExists, name)

		all, err := st.All()
		require.NoError(err, name)
		require.Len(all, 1, name)
		require.NoError(st.Close(), name)
	}
}

func (s *StoreTestSuite) TestLookupIsCaseSensitive() {
	require := s.Require()
	for name, st := range s.openStores() {
		require.NoError(st.Put(newBinding("Alice")), name)
		_, err := st.Get("alice")
		require.ErrorIs(err, store.ErrNotFound, name)
		require.NoError(st.Close(), name)
	}
}

func (s *StoreTestSuite) TestAllPreservesInsertionOrder() {
	require := s.Require()
	for name, st := range s.openStores() {
		for _, id := range []string{"carol", "alice", "bob"} {
			require.NoError(st.Put(newBinding(id)), name)
		}
		all, err := st.All()
		require.NoError(err, name)
		require.Len(all, 3, name)
		require.Equal("carol", all[0].User.ID, name)
		require.Equal("alice", all[1].User.ID, name)
		require.Equal("bob", all[2].User.ID, name)
		require.NoError(st.Close(), name)
	}
}

func (s *StoreTestSuite) TestRacingPutsKeepOneBinding() {
	require := s.Require()
	for name, st := range s.openStores() {
		var wg sync.WaitGroup
		errs := make([]error, 8)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = st.Put(newBinding("alice"))
			}(i)
		}
		wg.Wait()

		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
			} else {
				require.ErrorIs(err, store.ErrExists, name)
			}
		}
		require.Equal(1, wins, name)

		all, err := st.All()
		require.NoError(err)
		require.Len(all, 1, name)
		require.NoError(st.Close(), name)
	}
}

func (s *StoreTestSuite) TestFileStoreSurvivesReopen() {
	require := s.Require()
	path := filepath.Join(s.T().TempDir(), "bindings.json")

	first, err := store.NewFileStore(path)
	require.NoError(err)
	require.NoError(first.Put(newBinding("alice")))
	require.NoError(first.Close())

	second, err := store.NewFileStore(path)
	require.NoError(err)
	got, err := second.Get("alice")
	require.NoError(err)
	require.Equal("alice", got.User.ID)
}

func (s *StoreTestSuite) TestFileStoreIsHumanReadable() {
	require := s.Require()
	path := filepath.Join(s.T().TempDir(), "bindings.json")

	st, err := store.NewFileStore(path)
	require.NoError(err)
	require.NoError(st.Put(newBinding("alice")))

	data, err := os.ReadFile(path)
	require.NoError(err)
	require.True(strings.Contains(string(data), "\n"))
	require.Contains(string(data), `"id": "alice"`)
}

func (s *StoreTestSuite) TestFileStoreCorruptFile() {
	require := s.Require()
	path := filepath.Join(s.T().TempDir(), "bindings.json")
	require.NoError(os.WriteFile(path, []byte("{not json"), 0o644))

	st, err := store.NewFileStore(path)
	require.NoError(err)
	_, err = st.Get("alice")
	require.Error(err)
	require.NotErrorIs(err, store.ErrNotFound)
}
