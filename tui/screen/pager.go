package screen

// Pager tracks offset paging for a list. The sentinel row is shown while
// more pages may exist; a short page exhausts the list.
type Pager struct {
	Size    int
	next    int
	loading bool
	done    bool
	err     error
}

func NewPager(size int) Pager {
	return Pager{Size: size}
}

// Begin claims the next page. It returns false while a page is loading or
// after the list is exhausted.
func (p *Pager) Begin() (page int, ok bool) {
	if p.loading || p.done {
		return 0, false
	}
	p.loading = true
	p.err = nil
	return p.next, true
}

// Finish records a page of n rows, or a failure.
func (p *Pager) Finish(n int, err error) {
	p.loading = false
	if err != nil {
		p.err = err
		return
	}
	p.next++
	if n < p.Size {
		p.done = true
	}
}

// Loading reports whether a page is in flight.
func (p Pager) Loading() bool { return p.loading }

// Exhausted reports whether the last page was short.
func (p Pager) Exhausted() bool { return p.done }

// Loaded counts completed pages.
func (p Pager) Loaded() int { return p.next }

// Err is the last page failure.
func (p Pager) Err() error { return p.err }

// Sentinel reports whether the "more" row belongs after the loaded rows.
func (p Pager) Sentinel() bool { return !p.done && p.next > 0 }
