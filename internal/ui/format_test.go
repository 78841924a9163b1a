package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorFuncRespectsTerminalSupport(t *testing.T) {
	fn := colorFunc("red")

	if supportsColor {
		assert.NotEqual(t, "text", fn("text"))
	} else {
		assert.Equal(t, "text", fn("text"))
	}
}

func TestGetSuggestion(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"Login failed for user 'etl'", "username and password"},
		{"unable to open tcp connection with host", "host, port"},
		{"Invalid object name 'FactOrders'", "starload schema"},
		{"Workbook not found: Customers", "Re-export"},
		{"something else entirely", ""},
	}

	for _, tt := range tests {
		got := getSuggestion(tt.message)
		if tt.want == "" {
			assert.Empty(t, got)
		} else {
			assert.Contains(t, got, tt.want)
		}
	}
}

func TestNewUIQuietSuppressesSpinner(t *testing.T) {
	u := NewUI(false, true)
	u.StartProgress("working")
	assert.Nil(t, u.spinner)
	u.StopProgress(true, "done")
}
