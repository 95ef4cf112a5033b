package web_test

import (
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/pilosa/rdk"
	"github.com/pilosa/rdk/test"
	"github.com/pilosa/rdk/web"
)

type staticIngestor struct {
	d *rdk.Dataset
}

func (s staticIngestor) Ingest(source string) (*rdk.Dataset, error) {
	return s.d, nil
}

// sample covers most default views; correlation stays broken because the
// price columns are absent, which the handlers should surface.
func sample(t *testing.T) *rdk.Dataset {
	t.Helper()
	day := func(s string) time.Time {
		ts, err := time.Parse("2006-01-02", s)
		test.ErrNil(t, err, "parsing day")
		return ts
	}
	d, err := rdk.NewDataset(
		rdk.NewStringColumn("Country", []string{"Canada", "Germany", "France", "Canada", "Mexico"}),
		rdk.NewStringColumn("Product", []string{"Paseo", "Velo", "Montana", "Paseo", "VTT"}),
		rdk.NewStringColumn("Discount Band", []string{"High", "Low", "Medium", "None", "High"}),
		rdk.NewFloatColumn("Units Sold", []float64{100, 200, 300, 150, 50}),
		rdk.NewFloatColumn("Sales", []float64{32370, 26420, 15022, 45580, math.NaN()}),
		rdk.NewFloatColumn("Profit", []float64{5000, 3000, 2000, 8000, 100}),
		rdk.NewTimeColumn("Date", []time.Time{day("2014-01-01"), day("2014-01-01"), day("2013-12-01"), day("2014-06-01"), {}}),
	)
	test.ErrNil(t, err, "building dataset")
	return d
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	session, err := rdk.NewSession(staticIngestor{d: sample(t)}, "")
	test.ErrNil(t, err, "building session")
	srv, err := web.NewServer(session)
	test.ErrNil(t, err, "building server")
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, v interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	test.ErrNil(t, err, "getting "+url)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	err = json.NewDecoder(resp.Body).Decode(v)
	test.ErrNil(t, err, "decoding "+url)
	return resp
}

type viewInfo struct {
	Name  string `json:"name"`
	Chart string `json:"chart"`
	Error string `json:"error"`
}

type datasetPayload struct {
	Columns []string        `json:"columns"`
	Types   []string        `json:"types"`
	Rows    int             `json:"rows"`
	Data    [][]interface{} `json:"data"`
}

func TestViews(t *testing.T) {
	ts := newTestServer(t)
	var infos []viewInfo
	getJSON(t, ts.URL+"/views", &infos)

	test.MustBe(t, 8, len(infos), "view count")
	test.MustBe(t, "sales-trend", infos[0].Name)
	test.MustBe(t, "line", infos[0].Chart)
	byName := make(map[string]viewInfo)
	for _, info := range infos {
		byName[info.Name] = info
	}
	test.MustBe(t, "", byName["profit-by-country"].Error, "healthy view")
	if got := byName["correlation"].Error; !strings.Contains(got, "Manufacturing Price") {
		t.Fatalf("correlation error should name the missing column, got %q", got)
	}
}

func TestView(t *testing.T) {
	ts := newTestServer(t)
	var p datasetPayload
	resp := getJSON(t, ts.URL+"/view/sales-trend", &p)

	test.MustBe(t, "application/json", resp.Header.Get("Content-Type"))
	test.MustBe(t, []string{"Date", "Year", "Month", "TotalSales"}, p.Columns)
	test.MustBe(t, []string{"time", "float", "float", "float"}, p.Types)
	test.MustBe(t, 3, p.Rows)
	test.MustBe(t, "2013-12-01T00:00:00Z", p.Data[0][0], "first month")
	test.MustBe(t, "2014-06-01T00:00:00Z", p.Data[0][2], "last month")
	totals := p.Data[3]
	test.MustBe(t, float64(15022), totals[0])
	test.MustBe(t, float64(58790), totals[1], "january groups two rows")
	test.MustBe(t, float64(45580), totals[2])
}

func TestViewETag(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/view/sales-trend")
	test.ErrNil(t, err, "first get")
	resp.Body.Close()
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected an ETag header")
	}

	req, err := http.NewRequest("GET", ts.URL+"/view/sales-trend", nil)
	test.ErrNil(t, err, "building request")
	req.Header.Set("If-None-Match", etag)
	resp, err = http.DefaultClient.Do(req)
	test.ErrNil(t, err, "conditional get")
	defer resp.Body.Close()
	test.MustBe(t, http.StatusNotModified, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	test.ErrNil(t, err, "reading body")
	test.MustBe(t, 0, len(body), "304 carries no body")
}

func TestViewErrors(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/view/nope")
	test.ErrNil(t, err, "getting unknown view")
	resp.Body.Close()
	test.MustBe(t, http.StatusNotFound, resp.StatusCode, "unknown view")

	resp, err = http.Get(ts.URL + "/view/correlation")
	test.ErrNil(t, err, "getting broken view")
	defer resp.Body.Close()
	test.MustBe(t, http.StatusUnprocessableEntity, resp.StatusCode, "broken view")
	body, err := io.ReadAll(resp.Body)
	test.ErrNil(t, err, "reading body")
	if !strings.Contains(string(body), "Manufacturing Price") {
		t.Fatalf("response should name the missing column, got %q", body)
	}
}

func TestRaw(t *testing.T) {
	ts := newTestServer(t)
	var p datasetPayload
	getJSON(t, ts.URL+"/raw", &p)

	test.MustBe(t, []string{"Country", "Product", "Discount Band", "Units Sold", "Sales", "Profit", "Date"}, p.Columns)
	test.MustBe(t, 5, p.Rows)
	test.MustBe(t, "string", p.Types[0])
	test.MustBe(t, "float", p.Types[4])
	test.MustBe(t, "time", p.Types[6])
	test.MustBe(t, float64(32370), p.Data[4][0])
	if p.Data[4][4] != nil {
		t.Fatalf("NaN cell should encode as null, got %v", p.Data[4][4])
	}
	if p.Data[6][4] != nil {
		t.Fatalf("zero time should encode as null, got %v", p.Data[6][4])
	}
}

type seriesPayload struct {
	Name string        `json:"name"`
	Y    []interface{} `json:"y"`
}

func postSeries(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url+"/series", "application/json", strings.NewReader(body))
	test.ErrNil(t, err, "posting series")
	return resp
}

func TestSeries(t *testing.T) {
	ts := newTestServer(t)

	resp := postSeries(t, ts.URL, `{"columns": ["Sales"]}`)
	defer resp.Body.Close()
	test.MustBe(t, http.StatusOK, resp.StatusCode)
	var series []seriesPayload
	err := json.NewDecoder(resp.Body).Decode(&series)
	test.ErrNil(t, err, "decoding series")
	test.MustBe(t, 1, len(series))
	test.MustBe(t, "Sales", series[0].Name)
	test.MustBe(t, 5, len(series[0].Y), "whole raw dataset")
	test.MustBe(t, float64(32370), series[0].Y[0])
	if series[0].Y[4] != nil {
		t.Fatalf("NaN point should encode as null, got %v", series[0].Y[4])
	}
}

func TestSeriesWindow(t *testing.T) {
	ts := newTestServer(t)

	body := `{
		"columns": ["Sales", "Profit"],
		"filters": [{"column": "Country", "expr": "= Canada"}],
		"sort": [{"column": "Sales", "descending": true}]
	}`
	resp := postSeries(t, ts.URL, body)
	defer resp.Body.Close()
	test.MustBe(t, http.StatusOK, resp.StatusCode)
	var series []seriesPayload
	err := json.NewDecoder(resp.Body).Decode(&series)
	test.ErrNil(t, err, "decoding series")
	test.MustBe(t, 2, len(series))
	test.MustBe(t, []interface{}{float64(45580), float64(32370)}, series[0].Y, "sales over the window")
	test.MustBe(t, []interface{}{float64(8000), float64(5000)}, series[1].Y, "profit follows the same rows")
}

func TestSeriesErrors(t *testing.T) {
	ts := newTestServer(t)

	resp := postSeries(t, ts.URL, `{`)
	resp.Body.Close()
	test.MustBe(t, http.StatusBadRequest, resp.StatusCode, "malformed body")

	resp = postSeries(t, ts.URL, `{"columns": ["Sales"], "filters": [{"column": "Nope", "expr": "= x"}]}`)
	resp.Body.Close()
	test.MustBe(t, http.StatusBadRequest, resp.StatusCode, "unknown filter column")
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t)
	for i := 0; i < 3; i++ {
		resp, err := http.Get(ts.URL + "/view/sales-trend")
		test.ErrNil(t, err, "warming counter")
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/metrics")
	test.ErrNil(t, err, "getting metrics")
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	test.ErrNil(t, err, "reading metrics")
	text := string(body)
	if !strings.Contains(text, `rdk_http_requests_total{handler="view"} 3`) {
		t.Fatalf("metrics should count view requests:\n%s", text)
	}
	if !strings.Contains(text, `rdk_view_rows{view="sales-trend"} 3`) {
		t.Fatalf("metrics should gauge view rows:\n%s", text)
	}
}

func TestMainRun(t *testing.T) {
	m := web.NewMain()
	m.Kind = "bogus"
	err := m.Run()
	if err == nil || !strings.Contains(err.Error(), "unknown ingestor kind") {
		t.Fatalf("expected unknown kind error, got %v", err)
	}

	m = web.NewMain()
	m.Source = filepath.Join(t.TempDir(), "missing.csv")
	if err := m.Run(); !rdk.IsSourceNotFound(err) {
		t.Fatalf("expected source not found, got %v", err)
	}
}
