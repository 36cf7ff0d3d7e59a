package dynamo

import "sync"

// Pool recycles fixed-size scratch states, such as the ghost-padded
// buffers used by operator kernels.
type Pool struct {
	pool sync.Pool
	size int
}

func NewPool(size int) *Pool {
	return &Pool{
		size: size,
		pool: sync.Pool{
			New: func() interface{} {
				return make(State, size)
			},
		},
	}
}

func (p *Pool) Size() int { return p.size }

// Get returns a buffer of the pool size. Its contents are unspecified.
func (p *Pool) Get() State {
	return p.pool.Get().(State)
}

func (p *Pool) Put(s State) {
	if len(s) == p.size {
		p.pool.Put(s)
	}
}

func (p *Pool) GetAndCopy(src State) State {
	dst := p.Get()
	copy(dst, src)
	return dst
}
