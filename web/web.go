// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

// Package web serves a session read-only over HTTP as JSON: the view
// registry, each precomputed view, the raw dataset, and the
// displayed-window series recompute.
package web

import (
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/cespare/xxhash"
	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/pilosa/rdk"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP surface over a session. Views are computed once and
// never change afterward, so each view's JSON body and ETag are rendered
// at construction and served from memory.
type Server struct {
	session *rdk.Session
	router  *mux.Router
	pages   map[string]page
	raw     page

	reg      *prometheus.Registry
	requests *prometheus.CounterVec
	viewRows *prometheus.GaugeVec
}

// page is a prerendered JSON response body with its fingerprint.
type page struct {
	body []byte
	etag string
}

// NewServer builds the HTTP surface for session.
func NewServer(session *rdk.Session) (*Server, error) {
	s := &Server{
		session: session,
		router:  mux.NewRouter(),
		pages:   make(map[string]page),
		reg:     prometheus.NewRegistry(),
	}
	s.requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rdk_http_requests_total",
			Help: "HTTP requests served, partitioned by handler.",
		},
		[]string{"handler"},
	)
	s.viewRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rdk_view_rows",
			Help: "Rows in each precomputed view.",
		},
		[]string{"view"},
	)
	if err := s.reg.Register(s.requests); err != nil {
		return nil, errors.Wrap(err, "registering request counter")
	}
	if err := s.reg.Register(s.viewRows); err != nil {
		return nil, errors.Wrap(err, "registering row gauge")
	}

	p, err := render(session.Raw())
	if err != nil {
		return nil, errors.Wrap(err, "rendering raw dataset")
	}
	s.raw = p
	for _, spec := range session.Views() {
		d, err := session.View(spec.Name)
		if err != nil {
			// handleViews and handleView surface the recorded error
			continue
		}
		p, err := render(d)
		if err != nil {
			return nil, errors.Wrapf(err, "rendering view %s", spec.Name)
		}
		s.pages[spec.Name] = p
		s.viewRows.WithLabelValues(spec.Name).Set(float64(d.NumRows()))
	}

	s.router.HandleFunc("/views", s.handleViews).Methods("GET")
	s.router.HandleFunc("/view/{name}", s.handleView).Methods("GET")
	s.router.HandleFunc("/raw", s.handleRaw).Methods("GET")
	s.router.HandleFunc("/series", s.handleSeries).Methods("POST")
	s.router.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// render marshals d column-oriented and fingerprints the bytes.
func render(d *rdk.Dataset) (page, error) {
	body, err := json.Marshal(datasetJSON(d))
	if err != nil {
		return page{}, err
	}
	return page{
		body: body,
		etag: fmt.Sprintf("\"%016x\"", xxhash.Sum64(body)),
	}, nil
}

// viewInfo is one entry of the GET /views listing.
type viewInfo struct {
	Name  string `json:"name"`
	Chart string `json:"chart"`
	Error string `json:"error,omitempty"`
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	s.requests.WithLabelValues("views").Inc()
	specs := s.session.Views()
	infos := make([]viewInfo, len(specs))
	for i, spec := range specs {
		infos[i] = viewInfo{Name: spec.Name, Chart: string(spec.Chart)}
		if _, err := s.session.View(spec.Name); err != nil {
			infos[i].Error = err.Error()
		}
	}
	writeJSON(w, infos)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	s.requests.WithLabelValues("view").Inc()
	name := mux.Vars(r)["name"]
	p, ok := s.pages[name]
	if ok {
		s.serve(w, r, p)
		return
	}
	_, err := s.session.View(name)
	if err == nil {
		// every view that computed was rendered at construction
		http.Error(w, "view not rendered", http.StatusInternalServerError)
		return
	}
	if errors.Cause(err) == rdk.ErrUnknownView {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusUnprocessableEntity)
}

func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	s.requests.WithLabelValues("raw").Inc()
	s.serve(w, r, s.raw)
}

// serve writes a prerendered page, honoring If-None-Match.
func (s *Server) serve(w http.ResponseWriter, r *http.Request, p page) {
	w.Header().Set("ETag", p.etag)
	if r.Header.Get("If-None-Match") == p.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(p.body); err != nil {
		log.Printf("writing response: %v", err)
	}
}

// seriesRequest is the POST /series body: the table state driving the
// displayed window plus the columns whose series to recompute.
type seriesRequest struct {
	Columns  []string     `json:"columns"`
	Filters  []filterSpec `json:"filters"`
	Sort     []sortSpec   `json:"sort"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	Layout   string       `json:"layout"`
}

type filterSpec struct {
	Column string `json:"column"`
	Expr   string `json:"expr"`
}

type sortSpec struct {
	Column     string `json:"column"`
	Descending bool   `json:"descending"`
}

// state converts the request into a table state. PageSize zero means no
// pagination, so an empty request covers the whole raw dataset.
func (req *seriesRequest) state() *rdk.TableState {
	ts := &rdk.TableState{
		Page:     req.Page,
		PageSize: req.PageSize,
		Layout:   req.Layout,
	}
	if ts.Layout == "" {
		ts.Layout = "2006-01-02"
	}
	for _, f := range req.Filters {
		ts.Filters = append(ts.Filters, rdk.Filter{Column: f.Column, Expr: f.Expr})
	}
	for _, sp := range req.Sort {
		ts.Sort = append(ts.Sort, rdk.SortSpec{Column: sp.Column, Descending: sp.Descending})
	}
	return ts
}

// seriesJSON is one line of the dynamic chart with NaN holes as null.
type seriesJSON struct {
	Name string        `json:"name"`
	Y    []interface{} `json:"y"`
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	s.requests.WithLabelValues("series").Inc()
	var req seriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "decoding request: "+err.Error(), http.StatusBadRequest)
		return
	}
	series, err := s.session.Series(req.state(), req.Columns)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	out := make([]seriesJSON, len(series))
	for i, sr := range series {
		out[i] = seriesJSON{Name: sr.Name, Y: cellFloats(sr.Y)}
	}
	writeJSON(w, out)
}

// dataset is the column-oriented wire form of a Dataset. Missing cells
// (NaN, the zero time) encode as null.
type dataset struct {
	Columns []string        `json:"columns"`
	Types   []string        `json:"types"`
	Rows    int             `json:"rows"`
	Data    [][]interface{} `json:"data"`
}

func datasetJSON(d *rdk.Dataset) dataset {
	out := dataset{
		Columns: d.Names(),
		Types:   make([]string, d.NumCols()),
		Rows:    d.NumRows(),
		Data:    make([][]interface{}, d.NumCols()),
	}
	for i := 0; i < d.NumCols(); i++ {
		col := d.ColumnAt(i)
		out.Types[i] = col.Type().String()
		cells := make([]interface{}, col.Len())
		for j := range cells {
			cells[j] = cell(col, j)
		}
		out.Data[i] = cells
	}
	return out
}

func cell(col rdk.Column, i int) interface{} {
	switch col.Type() {
	case rdk.TypeFloat:
		v := col.Floats()[i]
		if math.IsNaN(v) {
			return nil
		}
		return v
	case rdk.TypeTime:
		t := col.Times()[i]
		if t.IsZero() {
			return nil
		}
		return t.Format(time.RFC3339)
	}
	return col.Strings()[i]
}

func cellFloats(vals []float64) []interface{} {
	out := make([]interface{}, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		out[i] = v
	}
	return out
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}
