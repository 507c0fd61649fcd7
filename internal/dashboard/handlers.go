package dashboard

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/KaramelBytes/carscout/internal/ai"
	"github.com/KaramelBytes/carscout/internal/catalog"
	"github.com/KaramelBytes/carscout/internal/dataset"
	"github.com/KaramelBytes/carscout/internal/filter"
	"github.com/KaramelBytes/carscout/internal/narrative"
	"github.com/KaramelBytes/carscout/internal/rank"
)

const msgThrottled = "Too many detail requests right now, please wait a moment and try again."

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	id := s.sessions.acquire(w, r)
	s.render(w, http.StatusOK, s.sessions.snapshot(id))
}

// handleFilters replaces the session's state with the submitted controls.
// Any open detail view is dropped.
func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	id := s.sessions.acquire(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	st := filter.FromValues(r.PostForm)
	s.sessions.update(id, func(sess *Session) {
		sess.State = st
		sess.Detail = nil
	})
	s.render(w, http.StatusOK, s.sessions.snapshot(id))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id := s.sessions.acquire(w, r)
	s.sessions.update(id, func(sess *Session) {
		sess.State = filter.Defaults(s.segments)
		sess.Detail = nil
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleDetails makes model the session's detail target and blocks on one
// narrative request for it.
func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	id := s.sessions.acquire(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	model := strings.TrimSpace(r.PostForm.Get("model"))
	years, known := s.data.YearRange(model)

	fail := func(status int, msg string) {
		s.sessions.update(id, func(sess *Session) {
			sess.Detail = &DetailView{Model: model, Years: years, Err: msg}
		})
		s.render(w, status, s.sessions.snapshot(id))
	}
	if !known {
		fail(http.StatusBadRequest, "unknown model")
		return
	}
	if !s.limiter.Allow() {
		fail(http.StatusTooManyRequests, msgThrottled)
		return
	}

	var st filter.State
	seq := s.sessions.update(id, func(sess *Session) {
		st = sess.State
		sess.Detail = &DetailView{Model: model, Years: years}
	})
	detail := &DetailView{Model: model, Years: years, Source: s.modelName}
	status := http.StatusOK
	n, err := s.describer.Describe(r.Context(), narrative.Subject{Model: model, Years: years, Filters: st.Narrowed()})
	if err != nil {
		detail.Err = err.Error()
		status = http.StatusBadGateway
	} else {
		detail.Narrative = n
	}
	if !s.sessions.settle(id, seq, detail) {
		s.log.Debug().Str("car_model", model).Msg("narrative superseded by a newer interaction")
	}
	s.render(w, status, s.sessions.snapshot(id))
}

// rankResponse is the /api/rank payload.
type rankResponse struct {
	State   filter.State `json:"state"`
	Models  []rank.Model `json:"models"`
	Matched int          `json:"matched"`
}

// handleAPIRank ranks against query-string filters layered on the defaults.
// It reads and writes no session state.
func (s *Server) handleAPIRank(w http.ResponseWriter, r *http.Request) {
	st := filter.Overlay(filter.Defaults(s.segments), r.URL.Query())
	res := rank.Rank(s.data.Listings, s.data.Ratings, st)
	models := res.Models
	if models == nil {
		models = []rank.Model{}
	}
	writeJSON(w, http.StatusOK, rankResponse{State: st, Models: models, Matched: res.Matched})
}

type detailsResponse struct {
	Model     string           `json:"model"`
	Years     dataset.YearSpan `json:"years"`
	Prompt    string           `json:"prompt"`
	Text      string           `json:"text"`
	HTML      string           `json:"html"`
	RequestID string           `json:"request_id,omitempty"`
}

// handleAPIDetails is the JSON form of handleDetails. Filters come from the
// query string or form body the same way as /api/rank.
func (s *Server) handleAPIDetails(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	model := strings.TrimSpace(r.Form.Get("model"))
	years, ok := s.data.YearRange(model)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown model")
		return
	}
	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, msgThrottled)
		return
	}
	filters := url.Values{}
	for k, v := range r.Form {
		if k != "model" {
			filters[k] = v
		}
	}
	st := filter.Overlay(filter.Defaults(s.segments), filters)
	n, err := s.describer.Describe(r.Context(), narrative.Subject{Model: model, Years: years, Filters: st.Narrowed()})
	if err != nil {
		s.log.Warn().Err(err).Str("car_model", model).Msg("details request failed")
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error(), "upstream_status": ai.StatusCode(err)})
		return
	}
	writeJSON(w, http.StatusOK, detailsResponse{
		Model: model, Years: years, Prompt: n.Prompt, Text: n.Text, HTML: string(n.HTML), RequestID: n.RequestID,
	})
}

type dictionaryMeta struct {
	Name    string          `json:"name"`
	Labels  []string        `json:"labels"`
	Entries []catalog.Entry `json:"entries"`
}

func (s *Server) handleAPIMeta(w http.ResponseWriter, _ *http.Request) {
	var dicts []dictionaryMeta
	for _, d := range catalog.All() {
		dicts = append(dicts, dictionaryMeta{Name: d.Name(), Labels: d.Labels(), Entries: d.Entries()})
	}
	ids := map[string]any{"columns": []string{}, "rows": 0}
	if s.data.IDs != nil {
		ids = map[string]any{"columns": s.data.IDs.Header, "rows": len(s.data.IDs.Rows)}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"listings":     len(s.data.Listings),
		"ratings":      len(s.data.Ratings),
		"models":       s.data.Models(),
		"ids":          ids,
		"segments":     s.segments,
		"dictionaries": dicts,
		"defaults":     filter.Defaults(s.segments),
		"bounds": map[string]any{
			"price": map[string]int{"min": filter.PriceLowerBound, "max": filter.PriceUpperBound, "step": filter.PriceStep},
			"year":  map[string]int{"min": filter.YearLowerBound, "max": filter.YearUpperBound, "step": 1},
			"odo":   map[string]int{"min": filter.OdoLowerBound, "max": filter.OdoUpperBound, "step": filter.OdoStep},
		},
		"top_n": rank.TopN,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"listings":   len(s.data.Listings),
		"sessions":   s.sessions.len(),
		"uptime_sec": int(time.Since(s.started).Seconds()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
