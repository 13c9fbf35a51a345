package httpapi

import (
	"errors"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/webizupfr/notion-mirror/internal/store"
)

func TestMapError_WrappedCategories(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", goerrors.New("bad slug", goerrors.CategoryValidation), http.StatusBadRequest, "bad_request"},
		{"bad input", goerrors.New("bad payload", goerrors.CategoryBadInput), http.StatusBadRequest, "bad_request"},
		{"auth", goerrors.New("who are you", goerrors.CategoryAuth), http.StatusUnauthorized, "unauthorized"},
		{"authz", goerrors.New("not yours", goerrors.CategoryAuthz), http.StatusForbidden, "forbidden"},
		{"not found", goerrors.New("gone", goerrors.CategoryNotFound), http.StatusNotFound, "not_found"},
		{"conflict", goerrors.New("slug taken", goerrors.CategoryConflict), http.StatusConflict, "conflict"},
		{"rate limit", goerrors.New("slow down", goerrors.CategoryRateLimit), http.StatusTooManyRequests, "rate_limited"},
		{"external", goerrors.New("upstream sulking", goerrors.CategoryExternal), http.StatusBadGateway, "upstream_error"},
		{"wrapped chain", goerrors.Wrap(errors.New("boom"), goerrors.CategoryValidation, "command validation failed"), http.StatusBadRequest, "bad_request"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			if status != tc.wantStatus {
				t.Fatalf("status: got %d, want %d", status, tc.wantStatus)
			}
			if payload.Error != tc.wantCode {
				t.Fatalf("code: got %q, want %q", payload.Error, tc.wantCode)
			}
		})
	}
}

func TestMapError_StoreNotFoundWins(t *testing.T) {
	err := &store.NotFoundError{Resource: "page bundle", Key: "page:missing"}
	status, payload := mapError(err)
	if status != http.StatusNotFound || payload.Error != "not_found" {
		t.Fatalf("got %d %q", status, payload.Error)
	}
}
