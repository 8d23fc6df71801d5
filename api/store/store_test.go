/* store_test.go
 * Contains unit tests for store.go, members.go and picks.go
 */

package store

import (
	"context"
	"testing"

	"survivor-pool/api/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// region Store tests

func TestNewStoreFromDatabase_SetsCollections(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("sets every collection", func(mt *mtest.T) {
		store := NewStoreFromDatabase(mt.Client, mt.DB)

		assert.Equal(t, MembersCollection, store.Collections.Members.Name())
		assert.Equal(t, PicksCollection, store.Collections.Picks.Name())
		assert.Equal(t, ResultsCollection, store.Collections.Results.Name())
		assert.Equal(t, StatusCollection, store.Collections.Status.Name())
	})
}

func TestNewStore_EmptyDatabaseName(t *testing.T) {
	store, err := NewStore(context.Background(), "", "mongodb://localhost:27017")

	assert.Nil(t, store)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database name cannot be empty")
}

func TestEnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates indexes", func(mt *mtest.T) {
		store := NewStoreFromDatabase(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())

		assert.NoError(t, store.EnsureIndexes(context.Background()))
	})

	mt.Run("returns error when index creation fails", func(mt *mtest.T) {
		store := NewStoreFromDatabase(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad index"}))

		err := store.EnsureIndexes(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create pick index")
	})
}

// endregion

// region ListMembers tests

func TestListMembers(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns members", func(mt *mtest.T) {
		store := NewStoreFromDatabase(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "survivor.pool_members", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "u1"}, {Key: "displayname", Value: "alice"}},
			bson.D{{Key: "_id", Value: "u2"}, {Key: "displayname", Value: "bob"}},
		))

		members, err := store.ListMembers(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []shared.PoolMember{{UserID: "u1", DisplayName: "alice"}, {UserID: "u2", DisplayName: "bob"}}, members)
	})

	mt.Run("returns error when find fails", func(mt *mtest.T) {
		store := NewStoreFromDatabase(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 1, Message: "boom"}))

		members, err := store.ListMembers(context.Background())

		assert.Nil(t, members)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "error fetching pool members from db")
	})
}

// endregion

// region AddMember tests

func TestAddMember(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upserts member", func(mt *mtest.T) {
		store := NewStoreFromDatabase(mt.Client, mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}, {Key: "nModified", Value: 1}})

		err := store.AddMember(context.Background(), shared.PoolMember{UserID: "u1", DisplayName: "alice"})
		assert.NoError(t, err)
	})

	mt.Run("rejects empty user id", func(mt *mtest.T) {
		store := NewStoreFromDatabase(mt.Client, mt.DB)

		err := store.AddMember(context.Background(), shared.PoolMember{DisplayName: "alice"})
		assert.Error(t, err)
	})

	mt.Run("returns error when update fails", func(mt *mtest.T) {
		store := NewStoreFromDatabase(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 2, Message: "write failed"}))

		err := store.AddMember(context.Background(), shared.PoolMember{UserID: "u1"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to store pool member")
	})
}

// endregion

// region GetPick tests

func TestGetPick(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns stored pick", func(mt *mtest.T) {
		store := NewStoreFromDatabase(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "survivor.survivor_picks", mtest.FirstBatch, bson.D{
			{Key: "userid", Value: "u1"},
			{Key: "week", Value: 3},
			{Key: "team", Value: "KC Chiefs"},
			{Key: "gameid", Value: "401"},
		}))

		pick, ok, err := store.GetPick(context.Background(), "u1", 3)

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, shared.Pick{UserID: "u1", Week: 3, Team: "KC Chiefs", GameID: "401"}, pick)
	})

	mt.Run("missing pick is not an error", func(mt *mtest.T) {
		store := NewStoreFromDatabase(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "survivor.survivor_picks", mtest.FirstBatch))

		pick, ok, err := store.GetPick(context.Background(), "u1", 3)

		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, shared.Pick{}, pick)
	})

	mt.Run("returns error when lookup fails", func(mt *mtest.T) {
		store := NewStoreFromDatabase(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 1, Message: "boom"}))

		_, ok, err := store.GetPick(context.Background(), "u1", 3)

		assert.False(t, ok)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "error fetching pick from db")
	})
}

// endregion

// region StorePick tests

func TestStorePick(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upserts pick", func(mt *mtest.T) {
		store := NewStoreFromDatabase(mt.Client, mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}, {Key: "nModified", Value: 1}})

		err := store.StorePick(context.Background(), shared.Pick{UserID: "u1", Week: 3, Team: "Kansas City Chiefs"})
		assert.NoError(t, err)
	})

	mt.Run("rejects empty user id", func(mt *mtest.T) {
		store := NewStoreFromDatabase(mt.Client, mt.DB)

		err := store.StorePick(context.Background(), shared.Pick{Week: 3, Team: "Kansas City Chiefs"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "user id cannot be empty")
	})

	mt.Run("rejects week zero", func(mt *mtest.T) {
		store := NewStoreFromDatabase(mt.Client, mt.DB)

		err := store.StorePick(context.Background(), shared.Pick{UserID: "u1", Team: "Kansas City Chiefs"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "week must be at least 1")
	})

	mt.Run("returns error when replace fails", func(mt *mtest.T) {
		store := NewStoreFromDatabase(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 2, Message: "write failed"}))

		err := store.StorePick(context.Background(), shared.Pick{UserID: "u1", Week: 3, Team: "Kansas City Chiefs"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to store pick")
	})
}

// endregion

// region ListPicks tests

func TestListPicks(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns picks", func(mt *mtest.T) {
		store := NewStoreFromDatabase(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "survivor.survivor_picks", mtest.FirstBatch,
			bson.D{{Key: "userid", Value: "u1"}, {Key: "week", Value: 1}, {Key: "team", Value: "Kansas City Chiefs"}},
			bson.D{{Key: "userid", Value: "u1"}, {Key: "week", Value: 2}, {Key: "team", Value: "Buffalo Bills"}},
		))

		picks, err := store.ListPicks(context.Background(), "u1")

		require.NoError(t, err)
		require.Len(t, picks, 2)
		assert.Equal(t, shared.Pick{UserID: "u1", Week: 1, Team: "Kansas City Chiefs"}, picks[0])
		assert.Equal(t, "Buffalo Bills", picks[1].Team)
	})

	mt.Run("no picks is empty", func(mt *mtest.T) {
		store := NewStoreFromDatabase(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "survivor.survivor_picks", mtest.FirstBatch))

		picks, err := store.ListPicks(context.Background(), "u1")

		assert.NoError(t, err)
		assert.Empty(t, picks)
	})

	mt.Run("returns error when find fails", func(mt *mtest.T) {
		store := NewStoreFromDatabase(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 1, Message: "boom"}))

		_, err := store.ListPicks(context.Background(), "u1")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "error fetching picks from db")
	})
}

// endregion
