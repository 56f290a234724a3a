package gate

type fanoutJob struct {
	clients []*Client
	payload []byte
}

// Fanout is a fixed worker pool pushing one payload to many client
// queues. Fire-and-forget: a slow or closed client is skipped, consumers
// treat broadcasts as re-fetch hints, not authoritative deltas.
type Fanout struct {
	jobs chan fanoutJob
}

func NewFanout(workers, queue int) *Fanout {
	if workers <= 0 {
		workers = 4
	}
	if queue <= 0 {
		queue = 1024
	}
	f := &Fanout{jobs: make(chan fanoutJob, queue)}
	for i := 0; i < workers; i++ {
		go func() {
			for job := range f.jobs {
				for _, c := range job.clients {
					_ = c.Enqueue(job.payload)
				}
			}
		}()
	}
	return f
}

func (f *Fanout) Broadcast(clients []*Client, payload []byte) {
	if len(clients) == 0 || len(payload) == 0 {
		return
	}
	f.jobs <- fanoutJob{clients: clients, payload: payload}
}

func (f *Fanout) Close() {
	close(f.jobs)
}
