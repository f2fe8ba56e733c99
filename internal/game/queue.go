package game

// TaskQueue is a Scheduler drained once per frame. Tasks deferred while
// draining run on the next Drain.
type TaskQueue struct {
	tasks []func()
	spare []func()
}

// Defer queues task.
func (q *TaskQueue) Defer(task func()) {
	q.tasks = append(q.tasks, task)
}

// Len returns the number of queued tasks.
func (q *TaskQueue) Len() int {
	return len(q.tasks)
}

// Drain runs the queued tasks in order and returns how many ran.
func (q *TaskQueue) Drain() int {
	run := q.tasks
	q.tasks = q.spare[:0]
	for i, task := range run {
		task()
		run[i] = nil
	}
	q.spare = run[:0]
	return len(run)
}
