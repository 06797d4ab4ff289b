package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ansa/internal/core/domain"
)

func TestMissLog_Record(t *testing.T) {
	log := NewMissLog()
	ctx := context.Background()

	miss := domain.Miss{
		ID:        "miss-1",
		Question:  "how do I rotate credentials?",
		TopScore:  0.41,
		Threshold: 0.78,
		AskedAt:   time.Now().UTC(),
	}

	err := log.Record(ctx, miss)
	require.NoError(t, err)

	misses := log.Misses()
	require.Len(t, misses, 1)
	assert.Equal(t, miss, misses[0])
}

func TestMissLog_Misses_Copy(t *testing.T) {
	log := NewMissLog()
	ctx := context.Background()

	require.NoError(t, log.Record(ctx, domain.Miss{ID: "miss-1"}))

	misses := log.Misses()
	misses[0].ID = "mutated"

	assert.Equal(t, "miss-1", log.Misses()[0].ID)
}

func TestMissLog_Close(t *testing.T) {
	log := NewMissLog()
	assert.NoError(t, log.Close())
}

func TestMissLog_Concurrency(t *testing.T) {
	log := NewMissLog()
	ctx := context.Background()

	var wg sync.WaitGroup
	numRecords := 50

	wg.Add(numRecords)
	for i := 0; i < numRecords; i++ {
		go func() {
			defer wg.Done()
			_ = log.Record(ctx, domain.Miss{Question: "q"})
		}()
	}
	wg.Wait()

	assert.Len(t, log.Misses(), numRecords)
}
