package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/daisuketominaga/shinsei/internal/domain"
	"github.com/daisuketominaga/shinsei/internal/llm"
	"github.com/daisuketominaga/shinsei/internal/sheets"
)

// --- Mocks ---

type mockGateway struct {
	decision *domain.JurisdictionDecision
	result   *domain.SearchResult
	fetchErr error

	lastBusinessType domain.BusinessType
	lastDecision     *domain.JurisdictionDecision
}

func (m *mockGateway) VerifyJurisdiction(_ context.Context, _, _ string, bt domain.BusinessType) *domain.JurisdictionDecision {
	m.lastBusinessType = bt
	return m.decision
}

func (m *mockGateway) FetchApplicationDetails(_ context.Context, decision *domain.JurisdictionDecision, _, _ string, _ domain.BusinessType) (*domain.SearchResult, error) {
	m.lastDecision = decision
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.result, nil
}

func defaultMockGateway() *mockGateway {
	return &mockGateway{
		decision: &domain.JurisdictionDecision{
			Jurisdiction: "相模原市",
			IsCity:       true,
			Reason:       "相模原市は政令指定都市のため、市が指定権者となります",
		},
		result: &domain.SearchResult{
			Jurisdiction:       "相模原市",
			JurisdictionDetail: "相模原市は政令指定都市のため、市が指定権者となります",
			Flow: []domain.FlowStep{
				{Step: "事前相談", Documents: []string{"相談票"}},
				{Step: "申請書の提出", Documents: []string{"申請書"}},
			},
			Summary:       "指定申請の概要。",
			ReferenceURL:  "https://example.jp/ref",
			ReferenceName: "参考情報",
			GuidelineURL:  "https://example.jp/guide",
			GuidelineName: "相模原市公式ガイドライン",
		},
	}
}

type mockStore struct {
	mu      sync.Mutex
	records map[string]*domain.HistoryRecord
	order   []string
	listErr error
}

func newMockStore() *mockStore {
	return &mockStore{records: map[string]*domain.HistoryRecord{}}
}

func (m *mockStore) List(_ context.Context, limit int) ([]domain.HistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.HistoryRecord, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *m.records[m.order[i]])
	}
	return out, nil
}

func (m *mockStore) Upsert(_ context.Context, rec *domain.HistoryRecord) (*domain.HistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == "" {
		rec.ID = "generated-id"
	}
	if _, ok := m.records[rec.ID]; !ok {
		m.order = append(m.order, rec.ID)
	}
	m.records[rec.ID] = rec
	return rec, nil
}

func (m *mockStore) UpdateCheckedSteps(_ context.Context, id string, steps []int) (*domain.HistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		// Wrapped like a real store error; the handler must unwrap it.
		return nil, fmt.Errorf("update checked steps: %w", domain.NewNotFoundError("指定された履歴が見つかりません"))
	}
	rec.CheckedSteps = steps
	return rec, nil
}

func (m *mockStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *mockStore) DeleteAll(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = map[string]*domain.HistoryRecord{}
	m.order = nil
	return nil
}

func (m *mockStore) Close() error { return nil }

type mockExporter struct {
	rows []sheets.Row
	err  error
}

func (m *mockExporter) Append(_ context.Context, row sheets.Row) error {
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, row)
	return nil
}

func newTestServer(gw *mockGateway, st *mockStore, exp *mockExporter) *echo.Echo {
	h := NewHandler(nilIfMissing(gw), st, nilIfMissingExporter(exp), Config{HistoryLimit: 100})
	return NewServer(h, ServerConfig{
		AllowOrigin:    "*",
		RateLimitRPS:   100,
		RateLimitBurst: 100,
	})
}

// nil interface plumbing: a typed nil pointer must not reach the handler.
func nilIfMissing(gw *mockGateway) llm.Gateway {
	if gw == nil {
		return nil
	}
	return gw
}

func nilIfMissingExporter(exp *mockExporter) sheets.Exporter {
	if exp == nil {
		return nil
	}
	return exp
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// --- Search tests ---

func TestSearch_MissingCity_Returns400(t *testing.T) {
	e := newTestServer(defaultMockGateway(), newMockStore(), nil)

	rec := doJSON(e, http.MethodPost, "/api/search", `{"prefecture":"神奈川県","city":"  "}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp domain.ErrorResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Error != "市区町村名が指定されていません" {
		t.Errorf("unexpected error message %q", resp.Error)
	}
	if resp.Code != string(domain.ErrCatValidation) {
		t.Errorf("expected validation code, got %q", resp.Code)
	}
}

func TestSearch_MissingPrefecture_Returns400(t *testing.T) {
	e := newTestServer(defaultMockGateway(), newMockStore(), nil)

	rec := doJSON(e, http.MethodPost, "/api/search", `{"city":"相模原市"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp domain.ErrorResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Error != "都道府県名が指定されていません" {
		t.Errorf("unexpected error message %q", resp.Error)
	}
}

func TestSearch_InvalidJSON_Returns400(t *testing.T) {
	e := newTestServer(defaultMockGateway(), newMockStore(), nil)

	rec := doJSON(e, http.MethodPost, "/api/search", "not json")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSearch_GatewayUnconfigured_Returns500(t *testing.T) {
	e := newTestServer(nil, newMockStore(), nil)

	rec := doJSON(e, http.MethodPost, "/api/search", `{"prefecture":"神奈川県","city":"相模原市"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp domain.ErrorResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Code != string(domain.ErrCatConfig) {
		t.Errorf("expected configuration code, got %q", resp.Code)
	}
}

func TestSearch_Success(t *testing.T) {
	gw := defaultMockGateway()
	e := newTestServer(gw, newMockStore(), nil)

	rec := doJSON(e, http.MethodPost, "/api/search",
		`{"prefecture":"神奈川県","city":"相模原市","businessType":"visiting_nursing"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	raw := rec.Body.Bytes()
	var resp domain.SearchResult
	json.Unmarshal(raw, &resp)

	if resp.Jurisdiction != "相模原市" {
		t.Errorf("expected 相模原市, got %q", resp.Jurisdiction)
	}
	if len(resp.Flow) != 2 {
		t.Errorf("expected 2 flow steps, got %d", len(resp.Flow))
	}

	// The detail fetch must receive the decision confirmed in phase 1.
	if gw.lastDecision != gw.decision {
		t.Error("detail fetch did not receive the confirmed decision")
	}
	if gw.lastBusinessType != domain.BusinessVisitingNursing {
		t.Errorf("unexpected business type %q", gw.lastBusinessType)
	}

	// Contract fields present in the raw JSON.
	var rawMap map[string]any
	json.Unmarshal(raw, &rawMap)
	for _, field := range []string{"jurisdiction", "flow", "summary"} {
		if _, ok := rawMap[field]; !ok {
			t.Errorf("missing required field %q in response", field)
		}
	}
}

func TestSearch_UnknownBusinessTypeDefaults(t *testing.T) {
	gw := defaultMockGateway()
	e := newTestServer(gw, newMockStore(), nil)

	rec := doJSON(e, http.MethodPost, "/api/search",
		`{"prefecture":"神奈川県","city":"相模原市","businessType":"day_trading"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gw.lastBusinessType != domain.BusinessResidentialHome {
		t.Errorf("expected default business type, got %q", gw.lastBusinessType)
	}
}

func TestSearch_DetailFetchFailure_Returns500(t *testing.T) {
	gw := defaultMockGateway()
	gw.fetchErr = domain.NewUpstreamError("詳細情報の取得に失敗しました", nil)
	e := newTestServer(gw, newMockStore(), nil)

	rec := doJSON(e, http.MethodPost, "/api/search", `{"prefecture":"神奈川県","city":"相模原市"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp domain.ErrorResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Error != "詳細情報の取得に失敗しました" {
		t.Errorf("unexpected error message %q", resp.Error)
	}
	if resp.Code != string(domain.ErrCatUpstream) {
		t.Errorf("expected upstream code, got %q", resp.Code)
	}
}

// --- History tests ---

func TestHistory_UpsertAndList(t *testing.T) {
	st := newMockStore()
	e := newTestServer(defaultMockGateway(), st, nil)

	body := `{
		"id": "rec-1",
		"businessType": "visiting_nursing",
		"prefecture": "神奈川県",
		"city": "相模原市",
		"jurisdiction": "相模原市",
		"summary": "概要",
		"flow": [{"step":"事前相談","documents":[]}]
	}`
	rec := doJSON(e, http.MethodPost, "/api/history", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(e, http.MethodGet, "/api/history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var resp domain.HistoryListResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp.History) != 1 {
		t.Fatalf("expected 1 record, got %d", len(resp.History))
	}
	if resp.History[0].UserID != "anonymous" {
		t.Errorf("expected anonymous user, got %q", resp.History[0].UserID)
	}
}

func TestHistory_UpsertIncomplete_Returns400(t *testing.T) {
	e := newTestServer(defaultMockGateway(), newMockStore(), nil)

	rec := doJSON(e, http.MethodPost, "/api/history", `{"prefecture":"神奈川県"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHistory_UpdateCheckedSteps(t *testing.T) {
	st := newMockStore()
	st.Upsert(context.Background(), &domain.HistoryRecord{ID: "rec-1", Jurisdiction: "相模原市"})
	e := newTestServer(defaultMockGateway(), st, nil)

	rec := doJSON(e, http.MethodPatch, "/api/history", `{"id":"rec-1","checkedSteps":[0,2]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp domain.MutationResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if !resp.Success || resp.Data == nil {
		t.Fatal("expected success with data")
	}
	if len(resp.Data.CheckedSteps) != 2 {
		t.Errorf("expected 2 checked steps, got %v", resp.Data.CheckedSteps)
	}
}

func TestHistory_UpdateCheckedSteps_MissingID_Returns400(t *testing.T) {
	e := newTestServer(defaultMockGateway(), newMockStore(), nil)

	rec := doJSON(e, http.MethodPatch, "/api/history", `{"checkedSteps":[0]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHistory_UpdateCheckedSteps_Unknown_Returns404(t *testing.T) {
	e := newTestServer(defaultMockGateway(), newMockStore(), nil)

	rec := doJSON(e, http.MethodPatch, "/api/history", `{"id":"missing","checkedSteps":[0]}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	var resp domain.ErrorResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Code != string(domain.ErrCatNotFound) {
		t.Errorf("expected not_found code, got %q", resp.Code)
	}
}

func TestHistory_DeleteByID(t *testing.T) {
	st := newMockStore()
	st.Upsert(context.Background(), &domain.HistoryRecord{ID: "rec-1"})
	e := newTestServer(defaultMockGateway(), st, nil)

	rec := doJSON(e, http.MethodDelete, "/api/history?id=rec-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(st.records) != 0 {
		t.Error("record was not deleted")
	}
}

func TestHistory_DeleteWithoutID_Returns400(t *testing.T) {
	e := newTestServer(defaultMockGateway(), newMockStore(), nil)

	rec := doJSON(e, http.MethodDelete, "/api/history", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHistory_DeleteAll(t *testing.T) {
	st := newMockStore()
	st.Upsert(context.Background(), &domain.HistoryRecord{ID: "a"})
	st.Upsert(context.Background(), &domain.HistoryRecord{ID: "b"})
	e := newTestServer(defaultMockGateway(), st, nil)

	rec := doJSON(e, http.MethodDelete, "/api/history?all=true", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(st.records) != 0 {
		t.Error("records were not cleared")
	}
}

// --- Export tests ---

func TestExport_Success(t *testing.T) {
	exp := &mockExporter{}
	e := newTestServer(defaultMockGateway(), newMockStore(), exp)

	body := `{
		"businessType": "visiting_nursing",
		"prefecture": "神奈川県",
		"city": "相模原市",
		"jurisdiction": "相模原市",
		"jurisdictionDetail": "政令指定都市のため",
		"summary": "概要",
		"guidelineUrl": "https://example.jp/guide"
	}`
	rec := doJSON(e, http.MethodPost, "/api/export", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if len(exp.rows) != 1 {
		t.Fatalf("expected 1 exported row, got %d", len(exp.rows))
	}
	row := exp.rows[0]
	if row.BusinessTypeName != "訪問看護事業所" {
		t.Errorf("expected display name, got %q", row.BusinessTypeName)
	}
	if row.GuidelineURL != "https://example.jp/guide" {
		t.Errorf("unexpected guideline url %q", row.GuidelineURL)
	}
}

func TestExport_Unconfigured_Returns500(t *testing.T) {
	e := newTestServer(defaultMockGateway(), newMockStore(), nil)

	rec := doJSON(e, http.MethodPost, "/api/export", `{"businessType":"visiting_care"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp domain.ErrorResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Code != string(domain.ErrCatConfig) {
		t.Errorf("expected configuration code, got %q", resp.Code)
	}
}

// --- Server tests ---

func TestHealthz(t *testing.T) {
	e := newTestServer(defaultMockGateway(), newMockStore(), nil)

	rec := doJSON(e, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]string
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %q", resp["status"])
	}
}

func TestRateLimiter(t *testing.T) {
	h := NewHandler(defaultMockGateway(), newMockStore(), nil, Config{})
	e := NewServer(h, ServerConfig{AllowOrigin: "*", RateLimitRPS: 1, RateLimitBurst: 1})

	body := `{"prefecture":"神奈川県","city":"相模原市"}`

	rec := doJSON(e, http.MethodPost, "/api/search", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", rec.Code)
	}

	rec = doJSON(e, http.MethodPost, "/api/search", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", rec.Code)
	}
	var resp domain.ErrorResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Code != string(domain.ErrCatRateLimit) {
		t.Errorf("expected rate_limit code, got %q", resp.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	e := newTestServer(defaultMockGateway(), newMockStore(), nil)

	rec := doJSON(e, http.MethodGet, "/healthz", "")
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Error("expected X-Request-ID response header")
	}
}
