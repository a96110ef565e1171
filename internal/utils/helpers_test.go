package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/senyabanana/pharma-marketplace/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLimitOffset(t *testing.T) {
	tests := []struct {
		name       string
		limit      string
		offset     string
		wantLimit  int
		wantOffset int
		wantErr    bool
	}{
		{"defaults", "", "", 5, 0, false},
		{"explicit", "20", "40", 20, 40, false},
		{"limit too big", "51", "", 0, 0, true},
		{"zero limit", "0", "", 0, 0, true},
		{"negative offset", "", "-1", 0, 0, true},
		{"not a number", "ten", "", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset, err := ParseLimitOffset(tt.limit, tt.offset)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"Oran", "Alger", "Blida"}, SplitList([]string{"Oran, Alger", "", "Blida"}))
	assert.Nil(t, SplitList(nil))
}

func TestSendErrorResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	SendErrorResponse(rec, http.StatusConflict, models.KindTenderAlreadyClosed, "tender is already closed")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "TenderAlreadyClosed", body["kind"])
	assert.Equal(t, "tender is already closed", body["reason"])
}
