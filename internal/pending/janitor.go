package pending

import (
	"log/slog"
	"time"
)

// Cleaner is anything the janitor can sweep.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically sweeps registered stores.
type Janitor struct {
	cleaners []Cleaner
	stop     chan struct{}
	done     chan struct{}
}

func NewJanitor() *Janitor {
	return &Janitor{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (j *Janitor) Register(c Cleaner) {
	j.cleaners = append(j.cleaners, c)
}

func (j *Janitor) Start(interval time.Duration) {
	go j.run(interval)
}

func (j *Janitor) run(interval time.Duration) {
	defer close(j.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			total := 0
			for _, c := range j.cleaners {
				total += c.CleanExpired()
			}
			if total > 0 {
				slog.Debug("Swept expired sessions", "removed", total)
			}
		case <-j.stop:
			return
		}
	}
}

// Stop halts the sweep loop and waits for it to exit.
func (j *Janitor) Stop() {
	close(j.stop)
	<-j.done
}
