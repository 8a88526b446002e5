package thread

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerQueueRunsEveryJob(t *testing.T) {
	for _, workers := range []int{1, 2, 7, 16} {
		jobs := 100
		hits := make([]int32, jobs)
		WorkerQueue(workers, jobs, func(worker, job int) {
			atomic.AddInt32(&hits[job], 1)
		})
		for j := range hits {
			assert.Equal(t, int32(1), hits[j],
				"workers=%d job=%d", workers, j)
		}
	}
}

func TestWorkerQueueEdgeCases(t *testing.T) {
	ran := int32(0)
	WorkerQueue(0, 4, func(worker, job int) { atomic.AddInt32(&ran, 1) })
	assert.Equal(t, int32(4), ran, "workers clamped up to 1")

	WorkerQueue(4, 0, func(worker, job int) {
		t.Error("work ran with zero jobs")
	})
}

func TestSplitArrayCoversRange(t *testing.T) {
	for _, workers := range []int{1, 3, 4, 9} {
		n := 117
		hits := make([]int32, n)
		SplitArray(n, workers, func(worker, start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i := range hits {
			assert.Equal(t, int32(1), hits[i], "workers=%d i=%d",
				workers, i)
		}
	}
}
