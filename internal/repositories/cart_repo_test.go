package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/KhanhRomVN/saleso-order-service/internal/apperrors"
	"github.com/KhanhRomVN/saleso-order-service/internal/models"
)

func cartItem() models.CartItem {
	return models.CartItem{ProductID: "p1", Quantity: 2, SelectedSKU: "p1-red"}
}

func TestCartAddItem(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("new product is pushed in one guarded write", func(mt *mtest.T) {
		repo := &cartRepo{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := repo.AddItem(context.Background(), "cust-1", cartItem())

		require.NoError(mt, err)

		// The write must carry the duplicate guard itself; a separate
		// read-then-push would race two concurrent adds.
		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "update", evt.CommandName)
		assert.Contains(mt, evt.Command.String(), "$ne")
	})

	mt.Run("concurrent duplicate add reports conflict", func(mt *mtest.T) {
		repo := &cartRepo{coll: mt.Coll}
		// The guard filter misses, the upsert inserts, and the unique
		// customer_id index rejects the second cart document.
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))

		err := repo.AddItem(context.Background(), "cust-1", cartItem())

		assert.Equal(mt, apperrors.CodeConflict, apperrors.CodeOf(err))
	})

	mt.Run("invalid item never reaches the collection", func(mt *mtest.T) {
		repo := &cartRepo{coll: mt.Coll}

		err := repo.AddItem(context.Background(), "cust-1", models.CartItem{ProductID: "p1"})

		assert.Equal(mt, apperrors.CodeInvalidInput, apperrors.CodeOf(err))
		assert.Nil(mt, mt.GetStartedEvent())
	})
}
