package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/featurekit/internal/domain"
	domimp "github.com/kailas-cloud/featurekit/internal/domain/importance"
	"github.com/kailas-cloud/featurekit/internal/domain/schema"
	featuresuc "github.com/kailas-cloud/featurekit/internal/usecase/features"
	healthuc "github.com/kailas-cloud/featurekit/internal/usecase/health"
	importanceuc "github.com/kailas-cloud/featurekit/internal/usecase/importance"
	snapshotuc "github.com/kailas-cloud/featurekit/internal/usecase/snapshot"
)

// --- Mocks ---

type memImportanceRepo struct {
	reports map[string]domimp.Report
}

func (m *memImportanceRepo) Save(_ context.Context, rep domimp.Report) error {
	m.reports[rep.Model()] = rep
	return nil
}

func (m *memImportanceRepo) Get(_ context.Context, model string) (domimp.Report, error) {
	rep, ok := m.reports[model]
	if !ok {
		return domimp.Report{}, domain.ErrNotFound
	}
	return rep, nil
}

func (m *memImportanceRepo) Delete(_ context.Context, model string) error {
	delete(m.reports, model)
	return nil
}

func (m *memImportanceRepo) List(_ context.Context) ([]string, error) {
	var out []string
	for k := range m.reports {
		out = append(out, k)
	}
	return out, nil
}

type memSnapshotRepo struct {
	data   map[string][]byte
	latest string
}

func (m *memSnapshotRepo) Save(_ context.Context, fp string, data []byte) error {
	m.data[fp] = data
	m.latest = fp
	return nil
}

func (m *memSnapshotRepo) Get(_ context.Context, fp string) ([]byte, error) {
	d, ok := m.data[fp]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

func (m *memSnapshotRepo) Latest(ctx context.Context) (string, []byte, error) {
	if m.latest == "" {
		return "", nil, domain.ErrNotFound
	}
	d, err := m.Get(ctx, m.latest)
	return m.latest, d, err
}

func (m *memSnapshotRepo) List(_ context.Context) ([]string, error) {
	var out []string
	for k := range m.data {
		out = append(out, k)
	}
	return out, nil
}

type okPinger struct{ err error }

func (p okPinger) Ping(context.Context) error { return p.err }

func fp(f float64) *float64 { return &f }

func newTestRouter(t *testing.T) (http.Handler, *snapshotuc.Service) {
	t.Helper()
	return newTestRouterWithDB(t, okPinger{})
}

func newTestRouterWithDB(t *testing.T, db okPinger) (http.Handler, *snapshotuc.Service) {
	t.Helper()
	s, err := schema.New(schema.Document{
		Features: []schema.FeatureSpec{
			{Name: "age", Type: "numeric", Default: 25, Min: fp(16), Max: fp(65)},
			{Name: "gender", Type: "categorical", Default: "other", Categories: []string{"male", "female"}},
			{Name: "scholarship", Type: "binary", Default: false},
		},
		Target: &schema.TargetSpec{Name: "status", Categories: []string{"dropout", "graduate"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	snaps, err := snapshotuc.New(&memSnapshotRepo{data: map[string][]byte{}}, s)
	if err != nil {
		t.Fatal(err)
	}
	feats := featuresuc.New(s, nil)
	imps := importanceuc.New(&memImportanceRepo{reports: map[string]domimp.Report{}}, snaps, nil)
	health := healthuc.New(db, feats)

	srv := NewServer(feats, imps, snaps, health, zap.NewNop()).
		WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}))
	r := chi.NewRouter()
	srv.Routes(r)
	return r, snaps
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
}

// --- Tests ---

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t)
	rr := do(t, h, "GET", "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp HealthResponse
	decode(t, rr, &resp)
	if resp.Status != "ok" || resp.Checks["schema"] != "ok" || resp.Features != 3 || resp.Version == "" {
		t.Errorf("health = %+v", resp)
	}
}

func TestHealth_Degraded(t *testing.T) {
	h, _ := newTestRouterWithDB(t, okPinger{err: context.DeadlineExceeded})
	rr := do(t, h, "GET", "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	h, _ := newTestRouter(t)
	rr := do(t, h, "GET", "/metrics", "")
	if rr.Code != http.StatusOK || rr.Body.String() != "# metrics" {
		t.Errorf("metrics = %d %q", rr.Code, rr.Body.String())
	}
}

func TestGetSchema(t *testing.T) {
	h, _ := newTestRouter(t)
	rr := do(t, h, "GET", "/schema", "")
	var resp SchemaResponse
	decode(t, rr, &resp)
	var target schema.Target
	if err := json.Unmarshal(resp.Target, &target); err != nil {
		t.Fatalf("target: %v", err)
	}
	if len(resp.Features) != 3 || resp.Features[0].Name != "age" || target.Name != "status" {
		t.Errorf("schema = %+v", resp)
	}
}

func TestGetSchema_UndeclaredTarget(t *testing.T) {
	s, err := schema.New(schema.Document{
		Features: []schema.FeatureSpec{{Name: "age", Type: "numeric", Default: 25}},
	})
	if err != nil {
		t.Fatal(err)
	}
	snaps, err := snapshotuc.New(&memSnapshotRepo{data: map[string][]byte{}}, s)
	if err != nil {
		t.Fatal(err)
	}
	feats := featuresuc.New(s, nil)
	srv := NewServer(feats, importanceuc.New(&memImportanceRepo{reports: map[string]domimp.Report{}}, snaps, nil),
		snaps, healthuc.New(okPinger{}, feats), zap.NewNop())
	r := chi.NewRouter()
	srv.Routes(r)

	rr := do(t, r, "GET", "/schema", "")
	if !strings.Contains(rr.Body.String(), `"target":{}`) {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestListFeatureNames(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		query string
		code  int
		want  string
	}{
		{"", http.StatusOK, "age,gender,scholarship"},
		{"?type=numeric", http.StatusOK, "age"},
		{"?type=binary", http.StatusOK, "scholarship"},
		{"?type=categorical", http.StatusOK, "gender"},
		{"?type=ordinal", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := do(t, h, "GET", "/schema/features"+tt.query, "")
			if rr.Code != tt.code {
				t.Fatalf("status = %d, want %d", rr.Code, tt.code)
			}
			if tt.code != http.StatusOK {
				return
			}
			var resp NamesResponse
			decode(t, rr, &resp)
			if got := strings.Join(resp.Names, ","); got != tt.want {
				t.Errorf("names = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNormalize_CanonicalOrder(t *testing.T) {
	h, _ := newTestRouter(t)
	rr := do(t, h, "POST", "/normalize", `{"data": {"scholarship": "yes", "gender": "MALE ", "age": 10}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rr.Code, rr.Body.String())
	}
	want := `{"features":{"age":16,"gender":"male","scholarship":true}}` + "\n"
	if rr.Body.String() != want {
		t.Errorf("body = %q, want %q", rr.Body.String(), want)
	}
}

func TestNormalize_BadBody(t *testing.T) {
	h, _ := newTestRouter(t)
	for _, body := range []string{`{`, `{"other": 1}`, `{"data": [1]}`, `{"data": {}} {}`} {
		rr := do(t, h, "POST", "/normalize", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d", body, rr.Code)
		}
	}
}

func TestValidate(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := do(t, h, "POST", "/validate", `{"data": {"age": 30, "gender": "female", "scholarship": false}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var ok ValidateResponse
	decode(t, rr, &ok)
	if !ok.Valid || ok.Errors == nil || len(ok.Errors) != 0 {
		t.Errorf("valid response = %+v", ok)
	}

	rr = do(t, h, "POST", "/validate", `{"data": {"age": 80, "gender": null}}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rr.Code)
	}
	var bad ValidateResponse
	decode(t, rr, &bad)
	want := []string{
		"Feature 'age' must be <= 65",
		"Feature 'gender' must be one of male, female",
		"Missing feature 'scholarship'",
	}
	if bad.Valid || strings.Join(bad.Errors, "|") != strings.Join(want, "|") {
		t.Errorf("invalid response = %+v", bad)
	}
}

func TestImportances(t *testing.T) {
	h, snaps := newTestRouter(t)

	rr := do(t, h, "POST", "/importances/random_forest",
		`{"names": ["age__num", "age__sq", "gender__male"], "importances": [0.3, 0.1, 0.2]}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d body %s", rr.Code, rr.Body.String())
	}
	var rep ImportanceReport
	decode(t, rr, &rep)
	if rep.Model != "random_forest" || rep.SchemaFingerprint != snaps.Fingerprint() || rep.ID == "" {
		t.Errorf("report = %+v", rep)
	}
	if len(rep.Importances) != 2 || rep.Importances[0].Name != "age" || rep.Importances[1].Name != "gender" {
		t.Errorf("importances = %+v", rep.Importances)
	}

	rr = do(t, h, "GET", "/importances/random_forest", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}

	rr = do(t, h, "GET", "/importances", "")
	var models ModelsResponse
	decode(t, rr, &models)
	if len(models.Models) != 1 || models.Models[0] != "random_forest" {
		t.Errorf("models = %+v", models)
	}

	rr = do(t, h, "DELETE", "/importances/random_forest", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}
	rr = do(t, h, "GET", "/importances/random_forest", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status after delete = %d", rr.Code)
	}
	var errResp ErrorResponse
	decode(t, rr, &errResp)
	if errResp.Code != ErrorCodeNotFound {
		t.Errorf("error code = %s", errResp.Code)
	}
}

func TestImportances_BadRequests(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := do(t, h, "POST", "/importances/bad%20name", `{"names": [], "importances": []}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("invalid model: status = %d", rr.Code)
	}
	rr = do(t, h, "POST", "/importances/rf", `{"names": ["a"]}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing importances: status = %d", rr.Code)
	}
	rr = do(t, h, "GET", "/importances/unknown", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown model: status = %d", rr.Code)
	}
}

func TestSnapshots(t *testing.T) {
	h, snaps := newTestRouter(t)

	rr := do(t, h, "GET", "/snapshots/latest", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("latest before publish: status = %d", rr.Code)
	}

	rr = do(t, h, "POST", "/snapshots", "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("publish status = %d", rr.Code)
	}
	var pub SnapshotResponse
	decode(t, rr, &pub)
	if pub.Fingerprint != snaps.Fingerprint() {
		t.Errorf("fingerprint = %q", pub.Fingerprint)
	}

	rr = do(t, h, "GET", "/snapshots/"+pub.Fingerprint, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}
	var doc schema.Document
	decode(t, rr, &doc)
	if len(doc.Features) != 3 || doc.Target == nil || doc.Target.Name != "status" {
		t.Errorf("snapshot = %+v", doc)
	}

	rr = do(t, h, "GET", "/snapshots/latest", "")
	if rr.Code != http.StatusOK || rr.Header().Get("X-Schema-Fingerprint") != pub.Fingerprint {
		t.Errorf("latest = %d %q", rr.Code, rr.Header().Get("X-Schema-Fingerprint"))
	}

	rr = do(t, h, "GET", "/snapshots", "")
	var list SnapshotsResponse
	decode(t, rr, &list)
	if len(list.Fingerprints) != 1 {
		t.Errorf("list = %+v", list)
	}

	rr = do(t, h, "GET", "/snapshots/nothex", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad fingerprint: status = %d", rr.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	h, _ := newTestRouter(t)
	rr := do(t, h, "GET", "/nope", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte(`"not_found"`)) {
		t.Errorf("body = %s", rr.Body.String())
	}
}
