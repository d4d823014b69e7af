package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add fee bills", "add_fee_bills"},
		{"Add-Fee-Bills", "add_fee_bills"},
		{"ADD__FEE__BILLS", "add_fee_bills"},
		{"salary records 2", "salary_records_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_NumbersSequentially(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000003_payroll.up.sql"), []byte("--"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000003_payroll.down.sql"), []byte("--"), 0o644))

	mf, err := CreateMigration(dir, "add bill archive", "Track archived bill snapshots")
	require.NoError(t, err)
	assert.Equal(t, "000004", mf.Version)
	assert.Equal(t, filepath.Join(dir, "000004_add_bill_archive.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "000004_add_bill_archive.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "add_bill_archive")
	assert.Contains(t, string(up), "Track archived bill snapshots")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")
}

func TestCreateMigration_FirstInNewDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "sql")

	mf, err := CreateMigration(dir, "init", "")
	require.NoError(t, err)
	assert.Equal(t, "000001", mf.Version)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{
		"000002_fee_billing.up.sql",
		"000002_fee_billing.down.sql",
		"000001_fee_catalog.up.sql",
		"000001_fee_catalog.down.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("--"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old.up.sql"), 0o755))

	migrations, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_fee_catalog", "000002_fee_billing"}, migrations)
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	migrations, err := ListMigrations("/nonexistent/path/to/migrations")
	require.NoError(t, err)
	assert.Empty(t, migrations)
}

func TestEmbedded(t *testing.T) {
	migrations, err := Embedded()
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_fee_catalog", "000002_fee_billing", "000003_payroll", "000004_custom_fee_applied_bill"}, migrations)
}
