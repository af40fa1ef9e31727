package blob

import (
	"context"
	"io"
	"sync"
)

// progress events kept when nobody is listening, extra events are dropped
const eventBuffer = 64

type Progress struct {
	BytesTransferred int64 `json:"bytes_transferred"`
	TotalBytes       int64 `json:"total_bytes"`
}

// Percent is floor(BytesTransferred / TotalBytes * 100), capped to 100
func (p Progress) Percent() int {
	if p.TotalBytes <= 0 {
		return 0
	}
	pct := p.BytesTransferred * 100 / p.TotalBytes
	if pct > 100 {
		return 100
	}
	return int(pct)
}

// Event is either a progress notification or the terminal result of an upload
type Event struct {
	Progress
	Data *Data
	Err  error
}

func (e Event) Terminal() bool {
	return e.Data != nil || e.Err != nil
}

// Upload is an in-flight Put.
//
// Events are delivered on a buffered channel that receives exactly one terminal
// event and is then closed. Progress events are dropped rather than blocking
// the transfer when the channel is full, so a listener may stop reading at any
// time. Abandoning an upload does not stop the transfer.
type Upload struct {
	events chan Event
	done   chan struct{}

	mtx      sync.Mutex
	last     Progress
	lastPct  int
	finished bool

	data *Data
	err  error
}

// Put starts uploading payload to path on the repository and returns immediately
func Put(ctx context.Context, repo Repository, path string, contentType string, payload io.Reader, size int64) *Upload {
	u := &Upload{
		events:  make(chan Event, eventBuffer+1), // one slot reserved for the terminal event
		done:    make(chan struct{}),
		last:    Progress{TotalBytes: size},
		lastPct: -1,
	}

	go func() {
		defer close(u.done)

		data, err := repo.Upload(ctx, path, contentType, &countingReader{r: payload, u: u}, size)

		u.mtx.Lock()
		defer u.mtx.Unlock()

		final := u.last
		if err == nil && data == nil {
			data = &Data{Path: path, PublicURL: repo.PublicURL(path)}
		}
		if err == nil {
			if final.TotalBytes <= 0 || final.TotalBytes < final.BytesTransferred {
				final.TotalBytes = final.BytesTransferred
			}
			if data.Path == "" {
				data.Path = path
			}
		}

		u.data, u.err = data, err
		u.finished = true
		if err != nil {
			u.events <- Event{Progress: final, Err: err}
		} else {
			u.events <- Event{Progress: final, Data: data}
		}
		close(u.events)
	}()

	return u
}

// Events of this upload, see Upload
func (u *Upload) Events() <-chan Event {
	return u.events
}

// Wait for the upload to finish. When ctx is done first, ctx.Err() is returned
// and the transfer keeps going in the background.
func (u *Upload) Wait(ctx context.Context) (*Data, error) {
	select {
	case <-u.done:
		return u.data, u.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (u *Upload) report(n int64) {
	u.mtx.Lock()
	defer u.mtx.Unlock()

	if u.finished {
		return
	}

	u.last.BytesTransferred += n
	pct := u.last.Percent()
	if pct == u.lastPct {
		return
	}
	u.lastPct = pct

	if len(u.events) >= eventBuffer {
		return
	}
	u.events <- Event{Progress: u.last}
}

type countingReader struct {
	r io.Reader
	u *Upload
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.u.report(int64(n))
	}
	return n, err
}
