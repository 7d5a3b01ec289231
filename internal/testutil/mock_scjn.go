// Package testutil provides testing utilities for the SCJN client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// BaseIUS is the IUS number of the first generated document.
const BaseIUS = 2000000

// MockResponse defines a canned response for a path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// failure is an injected error for a search page.
type failure struct {
	status     int
	remaining  int
	retryAfter string
}

// MockSCJN is a configurable mock of the SCJN thesis microservice.
//
// It serves a generated result set of Total documents on POST /tesis,
// single documents on GET /tesis/{id} and a health endpoint.
type MockSCJN struct {
	server *httptest.Server

	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc
	total    int
	delay    time.Duration
	failures map[int]*failure
	drift    map[int]int

	// Tracking
	requestCount     int
	conditionalCount int
	pageRequests     map[int]int
	pageSizes        []int
	payloads         [][]byte
	inFlight         int
	peakInFlight     int
	lastHeader       http.Header
}

// NewMockSCJN creates a mock server holding total documents.
func NewMockSCJN(total int) *MockSCJN {
	m := &MockSCJN{
		handlers:     make(map[string]http.HandlerFunc),
		total:        total,
		failures:     make(map[int]*failure),
		drift:        make(map[int]int),
		pageRequests: make(map[int]int),
	}

	m.server = httptest.NewServer(http.HandlerFunc(m.serve))
	return m
}

// URL returns the mock server URL.
func (m *MockSCJN) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockSCJN) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockSCJN) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.conditionalCount = 0
	m.pageRequests = make(map[int]int)
	m.pageSizes = nil
	m.payloads = nil
	m.peakInFlight = 0
	m.lastHeader = nil
}

// SetHandler overrides the handler for an exact path.
func (m *MockSCJN) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a canned response for an exact path.
func (m *MockSCJN) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			_, _ = w.Write([]byte(resp.Body))
		}
	})
}

// SetDelay makes every search page take at least d.
func (m *MockSCJN) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// FailPage makes the next times requests for page answer with status.
// A negative times fails forever.
func (m *MockSCJN) FailPage(page, status, times int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[page] = &failure{status: status, remaining: times}
}

// ThrottlePage answers the next times requests for page with 429 and the
// given Retry-After value.
func (m *MockSCJN) ThrottlePage(page, times int, retryAfter string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[page] = &failure{status: http.StatusTooManyRequests, remaining: times, retryAfter: retryAfter}
}

// DriftTotal makes page report total instead of the real count, simulating
// a result set that changes during a run.
func (m *MockSCJN) DriftTotal(page, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drift[page] = total
}

// RequestCount returns the number of requests made to the server.
func (m *MockSCJN) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// ConditionalCount returns the number of conditional requests.
func (m *MockSCJN) ConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conditionalCount
}

// PageRequests returns how often page was requested.
func (m *MockSCJN) PageRequests(page int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pageRequests[page]
}

// PageSizes returns the size parameter of every search request in arrival
// order.
func (m *MockSCJN) PageSizes() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int(nil), m.pageSizes...)
}

// Payloads returns the raw search bodies in arrival order.
func (m *MockSCJN) Payloads() [][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([][]byte(nil), m.payloads...)
}

// PeakInFlight returns the highest number of concurrent search requests.
func (m *MockSCJN) PeakInFlight() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.peakInFlight
}

// LastHeader returns the headers of the most recent request.
func (m *MockSCJN) LastHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}

// Document returns the generated document with index i (0-based).
func Document(i int) map[string]any {
	return map[string]any{
		"id":        strconv.Itoa(BaseIUS + i),
		"ius":       BaseIUS + i,
		"rubro":     fmt.Sprintf("RUBRO %d", i),
		"texto":     fmt.Sprintf("Texto de la tesis %d", i),
		"epoca":     "Undécima Época",
		"instancia": "Pleno",
		"tipoTesis": "Aislada",
	}
}

func (m *MockSCJN) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requestCount++
	m.lastHeader = r.Header.Clone()
	if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
		m.conditionalCount++
	}
	handler, exists := m.handlers[r.URL.Path]
	m.mu.Unlock()

	if exists {
		handler(w, r)
		return
	}

	switch {
	case r.URL.Path == "/health":
		writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
	case r.URL.Path == "/tesis" && r.Method == http.MethodPost:
		m.search(w, r)
	case strings.HasPrefix(r.URL.Path, "/tesis/") && r.Method == http.MethodGet:
		m.document(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (m *MockSCJN) search(w http.ResponseWriter, r *http.Request) {
	page, err1 := strconv.Atoi(r.URL.Query().Get("page"))
	size, err2 := strconv.Atoi(r.URL.Query().Get("size"))
	if err1 != nil || err2 != nil || page < 0 || size <= 0 {
		http.Error(w, "invalid page or size", http.StatusBadRequest)
		return
	}

	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.pageRequests[page]++
	m.pageSizes = append(m.pageSizes, size)
	m.payloads = append(m.payloads, body)
	m.inFlight++
	if m.inFlight > m.peakInFlight {
		m.peakInFlight = m.inFlight
	}
	delay := m.delay
	total := m.total
	if t, ok := m.drift[page]; ok {
		total = t
	}
	var fail *failure
	if f, ok := m.failures[page]; ok && f.remaining != 0 {
		f.remaining--
		fail = f
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if fail != nil {
		if fail.retryAfter != "" {
			w.Header().Set("Retry-After", fail.retryAfter)
		}
		http.Error(w, http.StatusText(fail.status), fail.status)
		return
	}

	docs := make([]map[string]any, 0, size)
	for i := page * size; i < min((page+1)*size, m.total); i++ {
		docs = append(docs, Document(i))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"total":     total,
		"totalPage": (total + size - 1) / size,
	})
}

func (m *MockSCJN) document(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/tesis/"))
	if err != nil || id < BaseIUS || id >= BaseIUS+m.total {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	etag := fmt.Sprintf(`"doc-%d"`, id)
	w.Header().Set("Expires", time.Now().Add(5*time.Minute).UTC().Format(http.TimeFormat))
	w.Header().Set("ETag", etag)

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	writeJSON(w, http.StatusOK, Document(id-BaseIUS))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
