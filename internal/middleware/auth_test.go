package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSuperUserOnly(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	cases := []struct {
		name       string
		configured string
		header     string
		want       int
	}{
		{"disabled when unconfigured", "", "Bearer s3cret", http.StatusUnauthorized},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"wrong token", "s3cret", "Bearer nope", http.StatusUnauthorized},
		{"valid bearer token", "s3cret", "Bearer s3cret", http.StatusOK},
		{"bare token accepted", "s3cret", "s3cret", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := SuperUserOnly(tc.configured)(ok)
			req := httptest.NewRequest(http.MethodGet, "/debug", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
