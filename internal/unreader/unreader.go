package unreader

// Unreader keeps the bytes given back by a consumer, so they are returned by the
// next read instead of touching the underlying source.
type Unreader struct {
	pending []byte
}

func (u *Unreader) PendingOr(or func() ([]byte, error)) (data []byte, err error) {
	if len(u.pending) > 0 {
		data, u.pending = u.pending, nil
		return data, nil
	}

	return or()
}

func (u *Unreader) Unread(b []byte) {
	u.pending = b
}

// Pending reports whether there are bytes to be returned by the next read.
func (u *Unreader) Pending() bool {
	return len(u.pending) > 0
}

func (u *Unreader) Reset() {
	u.pending = nil
}
