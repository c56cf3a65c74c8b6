package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"krida.io/dealdesk/internal/domain"
	"krida.io/dealdesk/internal/store"
)

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestReadyz(t *testing.T) {
	e := newTestEnv(t)

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/readyz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ready","deals":2}`, w.Body.String())
}

func TestMetricsPlaintext(t *testing.T) {
	e := newTestEnv(t)

	e.do(t, http.MethodGet, "/me", "")
	e.do(t, http.MethodGet, "/deals/d_missing", "")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	// Each line is "name value".
	for _, line := range strings.Split(strings.TrimSpace(w.Body.String()), "\n") {
		require.Len(t, strings.Fields(line), 2, line)
	}
	require.Contains(t, w.Body.String(), "errors_total 1")
}

func TestResetRestoresDefaultSeed(t *testing.T) {
	e := newTestEnv(t)

	// Dirty the state, then reset. The env has no seed path, so reset loads
	// the generated default dataset.
	e.do(t, http.MethodPatch, "/deals/d_1", `{"stage":"Declined"}`)

	w := e.do(t, http.MethodPost, "/-/reset", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, 40, e.store.DealCount())

	w = e.do(t, http.MethodGet, "/deals/d_1", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestResetRequiresAuth(t *testing.T) {
	e := newTestEnv(t)

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/-/reset", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestResetProfileSwitch(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/-/reset?profile=slow", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "slow", e.sim.Profile())
}

func TestResetRejectsUnknownProfile(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/-/reset?profile=warp", "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	// An invalid profile leaves the state untouched.
	require.Equal(t, 2, e.store.DealCount())
	require.Equal(t, "fast", e.sim.Profile())
}

func TestVerifyAllDocuments(t *testing.T) {
	e := newTestEnv(t)

	received := string(domain.DocReceived)
	_, err := e.store.UpdateDocument("dc_1", store.DocumentPatch{Status: &received})
	require.NoError(t, err)

	w := e.do(t, http.MethodPost, "/-/seed/documents/verify-all?dealId=d_1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"updated":["dc_1"]}`, w.Body.String())

	doc := e.findDocument(t, "d_1", "dc_1")
	require.Equal(t, domain.DocVerified, doc.Status)
}

func TestVerifyAllDocumentsRequiresDealID(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/-/seed/documents/verify-all", "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
