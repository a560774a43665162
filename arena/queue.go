package arena

// Queue is a FIFO of handles backed by a ring buffer
type Queue struct {
	buf  []Handle
	head int
	n    int
}

// Len returns the number of queued handles
func (q *Queue) Len() int {
	return q.n
}

// Push appends h at the tail
func (q *Queue) Push(h Handle) {
	if q.n == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.n)%len(q.buf)] = h
	q.n++
}

// Pop unlinks and returns the head
func (q *Queue) Pop() (Handle, bool) {
	if q.n == 0 {
		return Nil, false
	}
	h := q.buf[q.head]
	q.buf[q.head] = Nil
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	return h, true
}

// Peek returns the head without unlinking it
func (q *Queue) Peek() (Handle, bool) {
	if q.n == 0 {
		return Nil, false
	}
	return q.buf[q.head], true
}

// Reset drops every queued handle
func (q *Queue) Reset() {
	q.buf = nil
	q.head = 0
	q.n = 0
}

func (q *Queue) grow() {
	size := len(q.buf) * 2
	if size == 0 {
		size = 8
	}
	buf := make([]Handle, size)
	for i := 0; i < q.n; i++ {
		buf[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = buf
	q.head = 0
}
