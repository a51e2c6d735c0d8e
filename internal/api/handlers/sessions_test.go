package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeePatchRejection(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		isAdmin bool
		want    int
	}{
		{"admin on open session", SessionOpen, true, 0},
		{"admin on draft session", SessionDraft, true, http.StatusConflict},
		{"admin on closed session", SessionClosed, true, http.StatusConflict},
		{"staff on open session", SessionOpen, false, http.StatusForbidden},
		{"staff on draft session", SessionDraft, false, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := feePatchRejection(tt.status, tt.isAdmin)
			assert.Equal(t, tt.want, code)
			if tt.want == 0 {
				assert.Empty(t, msg)
			} else {
				assert.NotEmpty(t, msg)
			}
		})
	}
}
