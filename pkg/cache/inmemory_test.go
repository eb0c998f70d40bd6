package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/komponen/marketplace/pkg/cache"
)

func TestInMemory_GetAs(t *testing.T) {
	type S struct {
		Value string
	}

	t.Run("no key found", func(t *testing.T) {
		c, err := cache.NewInMemory()
		assert.NotNil(t, c)
		assert.NoError(t, err)

		var out S
		err = c.GetAs(context.Background(), "key", &out)
		assert.Error(t, err)
		assert.ErrorIs(t, err, cache.ErrKeyNotExist)
	})

	t.Run("success", func(t *testing.T) {
		c, err := cache.NewInMemory()
		assert.NotNil(t, c)
		assert.NoError(t, err)

		in := S{
			Value: "this is value",
		}

		err = c.SetExp(context.Background(), "key", in, time.Minute)
		assert.NoError(t, err)

		var out S
		err = c.GetAs(context.Background(), "key", &out)
		assert.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("expired key reads as not exist", func(t *testing.T) {
		c, err := cache.NewInMemory()
		assert.NotNil(t, c)
		assert.NoError(t, err)

		in := S{
			Value: "this is value",
		}

		err = c.SetExp(context.Background(), "key", in, 10*time.Millisecond)
		assert.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		var out S
		err = c.GetAs(context.Background(), "key", &out)
		assert.Error(t, err)
		assert.ErrorIs(t, err, cache.ErrKeyNotExist)
	})

	t.Run("zero duration never expires", func(t *testing.T) {
		c, err := cache.NewInMemory()
		assert.NotNil(t, c)
		assert.NoError(t, err)

		in := S{
			Value: "this is value",
		}

		err = c.SetExp(context.Background(), "key", in, 0)
		assert.NoError(t, err)

		var out S
		err = c.GetAs(context.Background(), "key", &out)
		assert.NoError(t, err)
		assert.Equal(t, in, out)
	})
}

func TestInMemory_Delete(t *testing.T) {
	t.Run("success: not exist key", func(t *testing.T) {
		c, err := cache.NewInMemory()
		assert.NotNil(t, c)
		assert.NoError(t, err)

		err = c.Delete(context.Background(), "key")
		assert.NoError(t, err)
	})

	t.Run("success", func(t *testing.T) {
		c, err := cache.NewInMemory()
		assert.NotNil(t, c)
		assert.NoError(t, err)

		type S struct {
			Value string
		}

		in := S{
			Value: "this is value",
		}

		err = c.SetExp(context.Background(), "key", in, time.Minute)
		assert.NoError(t, err)

		err = c.Delete(context.Background(), "key")
		assert.NoError(t, err)

		var out S
		err = c.GetAs(context.Background(), "key", &out)
		assert.ErrorIs(t, err, cache.ErrKeyNotExist)
	})
}
