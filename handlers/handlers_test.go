package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ecopulse-analytics-api/config"
	"ecopulse-analytics-api/dataset"
	"ecopulse-analytics-api/forecast"
	"ecopulse-analytics-api/modelstore"
	"ecopulse-analytics-api/peer"
	"ecopulse-analytics-api/recommend"
	"ecopulse-analytics-api/services"
	"ecopulse-analytics-api/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ── fakes ──

type fakeRecords struct {
	created []bson.M
	byYear  map[int]bson.M
}

func (f *fakeRecords) Create(_ context.Context, doc bson.M) (string, error) {
	f.created = append(f.created, doc)
	return fmt.Sprintf("id-%d", len(f.created)), nil
}

func (f *fakeRecords) UpdateByYear(_ context.Context, year int, update bson.M) (bson.M, error) {
	doc, ok := f.byYear[year]
	if !ok {
		return nil, fmt.Errorf("year %d: %w", year, store.ErrNotFound)
	}
	for k, v := range update {
		doc[k] = v
	}
	return doc, nil
}

func (f *fakeRecords) SetDeleted(_ context.Context, year int, deleted bool) error {
	doc, ok := f.byYear[year]
	if !ok {
		return fmt.Errorf("year %d: %w", year, store.ErrNotFound)
	}
	doc["isDeleted"] = deleted
	return nil
}

type fakeDocs struct {
	name       string
	docs       []bson.M
	lastFilter bson.M
	lastPage   store.Page
}

func (f *fakeDocs) Name() string { return f.name }

func (f *fakeDocs) List(_ context.Context, filter bson.M, page store.Page) ([]bson.M, error) {
	f.lastFilter, f.lastPage = filter, page
	if page.Limit > 0 && int(page.Limit) < len(f.docs) {
		return f.docs[:page.Limit], nil
	}
	return f.docs, nil
}

func (f *fakeDocs) Get(_ context.Context, id string) (bson.M, error) {
	if id == "bad" {
		return nil, fmt.Errorf("%w: %q", store.ErrInvalidID, id)
	}
	for _, d := range f.docs {
		if d["_id"] == id {
			return d, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeDocs) Create(_ context.Context, doc bson.M) (string, error) {
	doc["_id"] = fmt.Sprintf("doc-%d", len(f.docs)+1)
	f.docs = append(f.docs, doc)
	return doc["_id"].(string), nil
}

func (f *fakeDocs) Update(ctx context.Context, id string, fields bson.M) error {
	d, err := f.Get(ctx, id)
	if err != nil {
		return err
	}
	for k, v := range fields {
		d[k] = v
	}
	return nil
}

func (f *fakeDocs) Delete(ctx context.Context, id string) error {
	_, err := f.Get(ctx, id)
	return err
}

// ── fixtures ──

func nationalRows() dataset.StaticSource {
	var rows dataset.StaticSource
	for i, year := range []int{2020, 2021, 2022} {
		rows = append(rows, dataset.Row{
			{Name: "Year", Value: year},
			{Name: "Solar (GWh)", Value: 5.0 + float64(i)},
			{Name: forecast.PopulationColumn, Value: 100.0 + float64(i)},
			{Name: forecast.NonRenewableColumn, Value: 50.0},
		})
	}
	return rows
}

func peerRows() dataset.StaticSource {
	return dataset.StaticSource{
		{{Name: "Year", Value: 2024}, {Name: "Cebu Total Power Generation (GWh)", Value: 8.0}},
		{{Name: "Year", Value: 2025}, {Name: "Cebu Total Power Generation (GWh)", Value: 10.0}},
	}
}

func costRows() dataset.StaticSource {
	var rows dataset.StaticSource
	for year := 2015; year <= 2024; year++ {
		dt := float64(year - 2015)
		rows = append(rows, dataset.Row{
			{Name: "Year", Value: year},
			{Name: recommend.CostColumn, Value: 40*math.Exp(-0.3*dt) + 30},
			{Name: recommend.RateColumn, Value: 9 + 0.2*dt},
		})
	}
	return rows
}

type testAPI struct {
	router  *gin.Engine
	records *fakeRecords
	peer    *fakeDocs
	recs    *fakeDocs
}

func newTestAPI(auth *services.AuthService) *testAPI {
	solar := &forecast.Params{
		Target:       "Solar (GWh)",
		Features:     forecast.DefaultFeatures,
		Coefficients: []float64{0, 0, 0},
		Intercept:    42,
	}
	analytics := services.NewAnalytics(services.AnalyticsSources{
		Records: nationalRows(),
		Peer:    peerRows(),
		Costs:   costRows(),
	}, modelstore.NewMemory(solar), peer.DefaultConfig())

	api := &testAPI{
		router:  gin.New(),
		records: &fakeRecords{byYear: map[int]bson.M{2020: {"Year": 2020}}},
		peer: &fakeDocs{name: store.PeerCollection, docs: []bson.M{
			{"_id": "p3", "year": 2023},
			{"_id": "p2", "year": 2022},
			{"_id": "p1", "year": 2021},
		}},
		recs: &fakeDocs{name: store.RecommendationsCollection},
	}
	Register(api.router, Deps{
		Analytics:       analytics,
		Cache:           &services.CacheService{},
		Auth:            auth,
		Records:         api.records,
		Peer:            api.peer,
		Recommendations: api.recs,
	})
	return api
}

func (a *testAPI) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

// ── forecasts ──

func TestGetNational(t *testing.T) {
	w := newTestAPI(nil).do(http.MethodGet, "/api/predictions/solar/?start_year=2022&end_year=2023", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	preds := body["predictions"].([]any)
	if len(preds) != 2 {
		t.Fatalf("got %d predictions, want 2", len(preds))
	}
	first := preds[0].(map[string]any)
	if first["isPredicted"] != false || first["Predicted Production"] != 7.0 {
		t.Errorf("2022 row = %v, want actual 7", first)
	}
	second := preds[1].(map[string]any)
	if second["isPredicted"] != true || second["Predicted Production"] != 42.0 {
		t.Errorf("2023 row = %v, want predicted 42", second)
	}
	if _, ok := first[forecast.PopulationColumn]; !ok {
		t.Errorf("features missing from %v", first)
	}
	if _, ok := first["Year"]; !ok {
		t.Error("Year missing from row")
	}
}

func TestGetNationalErrors(t *testing.T) {
	api := newTestAPI(nil)
	tests := []struct {
		name string
		path string
		want int
	}{
		{"unknown model", "/api/predictions/wind/", http.StatusNotFound},
		{"bad start", "/api/predictions/solar/?start_year=soon", http.StatusBadRequest},
		{"bad end", "/api/predictions/solar/?end_year=2030.5", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(http.MethodGet, tt.path, "")
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if decode(t, w)["status"] != "error" {
				t.Errorf("body = %s", w.Body.String())
			}
		})
	}
}

func TestGetPeer(t *testing.T) {
	w := newTestAPI(nil).do(http.MethodGet, "/api/peertopeer/?year=2025", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp peerResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Predictions) != 2 {
		t.Fatalf("rows = %+v, want 2025 and 2026 for Cebu", resp.Predictions)
	}
	if r := resp.Predictions[0]; r.Year != 2025 || r.Place != "Cebu" || r.Value != 10 {
		t.Errorf("first row = %+v", r)
	}
	if r := resp.Predictions[1]; r.Year != 2026 || math.Abs(r.Value-12) > 1e-6 {
		t.Errorf("second row = %+v, want 12", r)
	}
}

func TestGetSolar(t *testing.T) {
	api := newTestAPI(nil)
	w := api.do(http.MethodGet, "/api/solar_recommendations/?year=2026&budget=100000", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp recommendationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Recommendations == nil || resp.Recommendations.FutureProjections.Year != 2026 {
		t.Fatalf("recommendations = %+v", resp.Recommendations)
	}
	if n := len(resp.Recommendations.CostBenefitAnalysis); n != 3 {
		t.Errorf("got %d line items, want 3", n)
	}

	if w := api.do(http.MethodGet, "/api/solar_recommendations/?budget=lots", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad budget status = %d, want 400", w.Code)
	}
}

func TestNewReport(t *testing.T) {
	r := NewReport(recommend.Recommendation{
		Year:                2030,
		Rate:                11.456,
		CapacityKW:          2.5,
		YearlyProductionKWh: 3650,
		YearlySavings:       0,
		ROIYears:            math.Inf(1),
	})
	if r.FutureProjections.Rate != "PHP 11.46 per kWh" {
		t.Errorf("rate = %q", r.FutureProjections.Rate)
	}
	if r.FutureProjections.Capacity != "2.50 kW" {
		t.Errorf("capacity = %q", r.FutureProjections.Capacity)
	}
	if got := r.CostBenefitAnalysis[0].Value; got != "3650.00 kWh" {
		t.Errorf("production = %q", got)
	}
	if got := r.CostBenefitAnalysis[2].Value; got != "inf years" {
		t.Errorf("roi = %q, want inf years", got)
	}
}

// ── national records ──

func TestRecordsRoutes(t *testing.T) {
	api := newTestAPI(nil)
	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		want    int
		message string
	}{
		{"create", http.MethodPost, "/api/create/", `{"Year": 2024, "Solar (GWh)": 3}`, http.StatusOK, "Data inserted successfully"},
		{"create without year", http.MethodPost, "/api/create/", `{"Solar (GWh)": 3}`, http.StatusBadRequest, "Year is required"},
		{"create bad json", http.MethodPost, "/api/create/", `{`, http.StatusBadRequest, ""},
		{"update", http.MethodPut, "/api/update/2020/", `{"Wind (GWh)": 1}`, http.StatusOK, "Record updated successfully"},
		{"update missing", http.MethodPut, "/api/update/1999/", `{"Wind (GWh)": 1}`, http.StatusNotFound, "Record not found"},
		{"update bad year", http.MethodPut, "/api/update/last/", `{}`, http.StatusBadRequest, "invalid year in path"},
		{"delete", http.MethodDelete, "/api/delete/2020/", "", http.StatusOK, "Record soft deleted successfully"},
		{"recover", http.MethodPut, "/api/recover/2020/", "", http.StatusOK, "Record recovered successfully"},
		{"recover missing", http.MethodPut, "/api/recover/1999/", "", http.StatusNotFound, "Record not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(tt.method, tt.path, tt.body)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
			if tt.message != "" && decode(t, w)["message"] != tt.message {
				t.Errorf("message = %v, want %q", decode(t, w)["message"], tt.message)
			}
		})
	}
	if len(api.records.created) != 1 {
		t.Errorf("created %d records, want 1", len(api.records.created))
	}
	if api.records.byYear[2020]["isDeleted"] != false {
		t.Errorf("2020 should be recovered, got %v", api.records.byYear[2020])
	}
}

func TestWriteRoutesRequireAdmin(t *testing.T) {
	auth := services.NewAuthService(config.JWTConfig{Secret: "test-secret", ExpiryHours: 1})
	api := newTestAPI(auth)

	if w := api.do(http.MethodPost, "/api/create/", `{"Year": 2024}`); w.Code != http.StatusUnauthorized {
		t.Errorf("create without token = %d, want 401", w.Code)
	}
	if w := api.do(http.MethodGet, "/api/peertopeer/records", ""); w.Code != http.StatusOK {
		t.Errorf("reads stay open, got %d", w.Code)
	}

	token, err := auth.GenerateToken("ops", "", services.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/create/", strings.NewReader(`{"Year": 2024}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("create with admin token = %d, body %s", w.Code, w.Body.String())
	}
}

// ── documents ──

func TestListDocuments(t *testing.T) {
	api := newTestAPI(nil)

	w := api.do(http.MethodGet, "/api/peertopeer/records?startYear=2021&endYear=2022", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if recs := decode(t, w)["records"].([]any); len(recs) != 3 {
		t.Errorf("got %d records, want all 3 from the fake", len(recs))
	}
	if _, ok := api.peer.lastFilter["$or"]; !ok {
		t.Errorf("filter = %v, want year range", api.peer.lastFilter)
	}
	if api.peer.lastPage.Limit != 0 {
		t.Errorf("unpaginated list should not limit, got %d", api.peer.lastPage.Limit)
	}

	w = api.do(http.MethodGet, "/api/peertopeer/records?startYear=2021", "")
	if w.Code != http.StatusOK || len(api.peer.lastFilter) != 0 {
		t.Errorf("half a range should not filter, got %v", api.peer.lastFilter)
	}

	if w := api.do(http.MethodGet, "/api/peertopeer/records?endYear=x&startYear=1", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad endYear status = %d, want 400", w.Code)
	}
}

func TestListDocumentsPaginated(t *testing.T) {
	api := newTestAPI(nil)
	w := api.do(http.MethodGet, "/api/peertopeer/records?limit=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Records    []map[string]any `json:"records"`
		NextCursor string           `json:"next_cursor"`
		HasMore    bool             `json:"has_more"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Records) != 2 || !resp.HasMore || resp.NextCursor != "p2" {
		t.Errorf("page = %+v", resp)
	}
	if api.peer.lastPage.Limit != 3 {
		t.Errorf("store limit = %d, want limit+1", api.peer.lastPage.Limit)
	}
}

func TestRecommendationFilter(t *testing.T) {
	api := newTestAPI(nil)
	if w := api.do(http.MethodGet, "/api/add/recommendations?year=2030", ""); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if api.recs.lastFilter["Year"] != 2030 {
		t.Errorf("filter = %v, want Year 2030", api.recs.lastFilter)
	}
}

func TestDocumentCRUD(t *testing.T) {
	api := newTestAPI(nil)

	w := api.do(http.MethodPost, "/api/add/recommendations", `{"Year": "2031", "budget": 5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d", w.Code)
	}
	body := decode(t, w)
	id, _ := body["id"].(string)
	if id == "" || body["message"] != "Recommendation created successfully" {
		t.Fatalf("create body = %v", body)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"get", http.MethodGet, "/api/add/recommendations/" + id, "", http.StatusOK},
		{"get missing", http.MethodGet, "/api/add/recommendations/nope", "", http.StatusNotFound},
		{"get invalid id", http.MethodGet, "/api/add/recommendations/bad", "", http.StatusBadRequest},
		{"put", http.MethodPut, "/api/add/recommendations/" + id, `{"budget": 6}`, http.StatusOK},
		{"patch", http.MethodPatch, "/api/add/recommendations/" + id, `{"budget": 7}`, http.StatusOK},
		{"delete", http.MethodDelete, "/api/add/recommendations/" + id, "", http.StatusOK},
		{"delete missing", http.MethodDelete, "/api/add/recommendations/nope", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := api.do(tt.method, tt.path, tt.body); w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
	if api.recs.docs[0]["budget"] != 7.0 {
		t.Errorf("doc = %v, want patched budget", api.recs.docs[0])
	}
}

func TestInsertPeerRecord(t *testing.T) {
	api := newTestAPI(nil)
	w := api.do(http.MethodPost, "/api/create/peertopeer/", `{"year": 2030}`)
	if w.Code != http.StatusOK || decode(t, w)["message"] != "Data inserted successfully" {
		t.Errorf("status = %d, body %s", w.Code, w.Body.String())
	}
	if len(api.peer.docs) != 4 {
		t.Errorf("peer docs = %d, want 4", len(api.peer.docs))
	}
}

func TestPeerInvalidates(t *testing.T) {
	tests := []struct {
		name  string
		costs bool
		want  []string
	}{
		{"costs from spreadsheet", false, []string{"peer:"}},
		{"costs from peer collection", true, []string{"peer:", "recommend:"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := peerInvalidates(Deps{PeerFeedsCosts: tt.costs})
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("peerInvalidates() = %v, want %v", got, tt.want)
			}
		})
	}
}

// ── record feed ──

func TestRecordFeedUnavailable(t *testing.T) {
	w := newTestAPI(nil).do(http.MethodGet, "/ws/records", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 without redis", w.Code)
	}
}

func TestRecordFeedRequiresToken(t *testing.T) {
	auth := services.NewAuthService(config.JWTConfig{Secret: "test-secret", ExpiryHours: 1})
	api := newTestAPI(auth)
	viewer, _ := auth.GenerateToken("v", "", "user")

	if w := api.do(http.MethodGet, "/ws/records", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", w.Code)
	}
	if w := api.do(http.MethodGet, "/ws/records?token="+viewer, ""); w.Code != http.StatusForbidden {
		t.Errorf("viewer token = %d, want 403", w.Code)
	}
}
