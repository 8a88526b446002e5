/*package thread contains small routines for parallelizing CPU-bound loops.
It is an internal building block for the projection engine: work is split
into jobs which accumulate into private buffers, and the caller merges those
buffers in a fixed order so that results do not depend on the number of
workers.*/
package thread

// Split splits a task into a specified number of jobs and runs them in
// parallel, one goroutine per job.
func Split(jobs int, work func(job int)) {
	WorkerQueue(jobs, jobs, func(worker, job int) { work(job) })
}

// WorkerQueue runs the given jobs on a fixed pool of workers. Jobs are
// handed out in order, but may complete in any order: any state shared
// between jobs must be merged by the caller afterwards.
//
// workers values below 1 are treated as 1.
func WorkerQueue(workers, jobs int, work func(worker, job int)) {
	if workers < 1 {
		workers = 1
	}
	if workers > jobs {
		workers = jobs
	}
	if jobs == 0 {
		return
	}

	jobChan := make(chan int, jobs)
	lockChan := make(chan int, workers)

	for j := 0; j < jobs; j++ {
		jobChan <- j
	}
	close(jobChan)

	for w := 0; w < workers; w++ {
		go func(worker int) {
			for j := range jobChan {
				work(worker, j)
			}
			lockChan <- 0
		}(w)
	}
	for w := 0; w < workers; w++ {
		<-lockChan
	}
}

// SplitArray splits the index range [0, n) into contiguous chunks and hands
// one chunk to each worker. Useful when cache locality matters more than
// load balancing.
func SplitArray(n, workers int, work func(worker, start, end int)) {
	if workers < 1 {
		workers = 1
	}
	step := n / workers
	if n%workers != 0 {
		step++
	}

	Split(workers, func(worker int) {
		start := worker * step
		end := start + step
		if start > n {
			start = n
		}
		if end > n {
			end = n
		}
		work(worker, start, end)
	})
}
