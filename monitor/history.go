package monitor

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/calvinmclean/babyapi"
	log "github.com/sirupsen/logrus"

	"github.com/calvinmclean/autovalve"
)

// Move is one completed reposition: a full close, the settle window and the timed opening
type Move struct {
	// include NilResource so we don't implement Render/Bind, moves are only ever read
	*babyapi.NilResource

	ID         string        `json:"id"`
	Started    time.Time     `json:"started"`
	Finished   time.Time     `json:"finished"`
	From       int           `json:"from"`
	Target     int           `json:"target"`
	Retargets  int           `json:"retargets"`
	Millivolts int           `json:"millivolts"`
	OpenPulse  time.Duration `json:"open_pulse"`
}

func (m Move) GetID() string {
	return m.ID
}

// History keeps every Move seen in the trace and serves them read-only at /moves
type History struct {
	api *babyapi.API[*Move]
	now func() time.Time

	mtx     sync.Mutex
	current *Move
	count   int
}

var _ Handler = &History{}

// NewHistory creates an empty History with in-memory storage
func NewHistory() *History {
	return &History{
		api: babyapi.NewAPI("Moves", "/moves", func() *Move { return &Move{} }),
		now: time.Now,
	}
}

func (h *History) HandleEvent(e autovalve.Event) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	switch e.Kind {
	case autovalve.EventClose:
		h.current = &Move{
			Started: h.now(),
			From:    e.Position,
			Target:  e.Target,
		}
	case autovalve.EventRetarget:
		if h.current == nil {
			return
		}
		h.current.Retargets++
		h.current.Target = e.Target
	case autovalve.EventOpen:
		if h.current == nil {
			return
		}
		h.current.Target = e.Target
		h.current.Millivolts = e.Millivolts
		h.current.OpenPulse = e.Duration
	case autovalve.EventIdle:
		if h.current == nil {
			return
		}
		h.count++
		move := h.current
		move.ID = strconv.Itoa(h.count)
		move.Finished = h.now()
		h.current = nil

		err := h.api.Storage.Set(context.Background(), move)
		if err != nil {
			log.WithError(err).WithField("id", move.ID).Warn("error storing move")
		}
	}
}

func (h *History) HandleLine(string) {}

// Handler serves GET requests for /moves and /moves/{id}. Anything else is rejected
func (h *History) Handler() http.Handler {
	router := h.api.Router()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "moves are read-only", http.StatusMethodNotAllowed)
			return
		}
		router.ServeHTTP(w, r)
	})
}
