package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/the-cashback-must-flow/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "user_settings.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoader_Load(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Settings
	}{
		{
			name:    "full file",
			content: `{"user_currencies": ["USD", "EUR"], "user_stocks": ["AAPL", "AMZN", "TSLA"]}`,
			want:    Settings{UserCurrencies: []string{"USD", "EUR"}, UserStocks: []string{"AAPL", "AMZN", "TSLA"}},
		},
		{
			name:    "normalized symbols",
			content: `{"user_currencies": [" usd ", "USD", ""], "user_stocks": ["googl"]}`,
			want:    Settings{UserCurrencies: []string{"USD"}, UserStocks: []string{"GOOGL"}},
		},
		{
			name:    "missing keys",
			content: `{}`,
			want:    Settings{UserCurrencies: []string{}, UserStocks: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewLoader(writeSettings(t, tt.content), common.Discard()).Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoader_Load_MissingFileUsesDefault(t *testing.T) {
	got, err := NewLoader(filepath.Join(t.TempDir(), "absent.json"), nil).Load()
	require.NoError(t, err)
	assert.Equal(t, Settings{UserCurrencies: []string{"USD"}, UserStocks: []string{"AAPL", "GOOGL"}}, got)
}

func TestLoader_Load_Malformed(t *testing.T) {
	_, err := NewLoader(writeSettings(t, `{"user_currencies": [`), common.Discard()).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read settings")
}
