package storage

import (
	"sync"
	"testing"

	"github.com/bradykim7/bookscraper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorKeepsOrder(t *testing.T) {
	c := NewCollector()
	a := models.NewRecord(models.Text("title", "A"))
	b := models.NewRecord(models.Text("title", "B"))

	require.NoError(t, c.Accept(a))
	require.NoError(t, c.Accept(b))
	assert.Equal(t, 2, c.Len())

	result, err := c.Finalize()
	require.NoError(t, err)
	assert.Equal(t, []models.Record{a, b}, result.Records)
}

func TestCollectorFinalizeOnce(t *testing.T) {
	c := NewCollector()
	result, err := c.Finalize()
	require.NoError(t, err)
	assert.Zero(t, result.Len())

	_, err = c.Finalize()
	assert.ErrorIs(t, err, ErrFinalized)
	assert.ErrorIs(t, c.Accept(models.NewRecord()), ErrFinalized)
}

func TestCollectorConcurrentAccept(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Accept(models.NewRecord(models.Text("title", "x")))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, c.Len())
}
