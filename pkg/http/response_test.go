package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestAppErrorResponse(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"bad request", BadRequestError("empty universe"), http.StatusBadRequest, "ERR_BAD_REQUEST"},
		{"not found", NotFoundError("no results"), http.StatusNotFound, "ERR_NOT_FOUND"},
		{"rate limited", TooManyRequestsError("slow down"), http.StatusTooManyRequests, "ERR_TOO_MANY_REQUESTS"},
		{"wrapped", fmt.Errorf("run: %w", ServiceUnavailableError("busy").WithError(errors.New("lock held"))), http.StatusServiceUnavailable, "ERR_SERVICE_UNAVAILABLE"},
		{"plain error", errors.New("db password leaked"), http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		if err := AppErrorResponse(c, tc.err); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: http status %d, want 200", tc.name, rec.Code)
		}
		var body struct {
			Status int             `json:"status"`
			Data   json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: decode: %v", tc.name, err)
		}
		if body.Status != tc.status {
			t.Fatalf("%s: status %d, want %d", tc.name, body.Status, tc.status)
		}
		if tc.code == "" {
			if strings.Contains(string(body.Data), "password") {
				t.Fatalf("%s: internal error leaked: %s", tc.name, body.Data)
			}
			continue
		}
		var errs []AppError
		if err := json.Unmarshal(body.Data, &errs); err != nil || len(errs) != 1 || errs[0].Code != tc.code {
			t.Fatalf("%s: data = %s", tc.name, body.Data)
		}
		if strings.Contains(string(body.Data), "lock held") {
			t.Fatalf("%s: wrapped error leaked: %s", tc.name, body.Data)
		}
	}
}
