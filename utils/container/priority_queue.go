package container

import "container/heap"

// item is one element of the queue together with its priority. The
// index is maintained by the heap.Interface methods.
type item[T any] struct {
	Value    T
	Priority float64 // smaller is served first
	index    int
}

// priorityQueue implements heap.Interface over items.
type priorityQueue[T any] []*item[T]

func (pq priorityQueue[T]) Len() int { return len(pq) }

func (pq priorityQueue[T]) Less(i, j int) bool {
	return pq[i].Priority < pq[j].Priority
}

func (pq priorityQueue[T]) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue[T]) Push(x any) {
	n := len(*pq)
	item := x.(*item[T])
	item.index = n
	*pq = append(*pq, item)
}

func (pq *priorityQueue[T]) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	item.index = -1
	*pq = old[0 : n-1]
	return item
}

// PriorityQueue is a generic min-priority queue. Elements may be added
// in bulk with Push followed by one Heapify, or one at a time with
// HeapPush.
type PriorityQueue[T any] struct {
	queue priorityQueue[T]
}

// NewPriorityQueue creates an empty queue.
func NewPriorityQueue[T any]() *PriorityQueue[T] {
	return &PriorityQueue[T]{queue: make(priorityQueue[T], 0)}
}

// Len returns the number of queued elements.
func (q *PriorityQueue[T]) Len() int {
	return len(q.queue)
}

// First returns the element with the smallest priority without
// removing it.
func (q *PriorityQueue[T]) First() T {
	return q.queue[0].Value
}

// Push appends an element without maintaining the heap property.
// Heapify must be called before the next pop.
func (q *PriorityQueue[T]) Push(value T, priority float64) {
	q.queue = append(q.queue, &item[T]{
		Value:    value,
		Priority: priority,
	})
}

// Heapify rebuilds the heap after bulk Push calls.
func (q *PriorityQueue[T]) Heapify() {
	heap.Init(&q.queue)
}

// HeapPush adds an element and maintains the heap property.
func (q *PriorityQueue[T]) HeapPush(value T, priority float64) {
	heap.Push(&q.queue, &item[T]{
		Value:    value,
		Priority: priority,
	})
}

// HeapPop removes and returns the element with the smallest priority.
func (q *PriorityQueue[T]) HeapPop() (value T, priority float64) {
	item := heap.Pop(&q.queue).(*item[T])
	return item.Value, item.Priority
}
