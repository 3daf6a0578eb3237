package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"token-topup-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usersJSON = `[
  {"id": 1, "first_name": "Tanya", "last_name": "Nichols", "email": "tanya.nichols@test.com",
   "company_id": 2, "email_status": true, "active_status": false, "tokens": 23},
  {"id": 2, "first_name": "Brent", "last_name": "Rodriquez", "email": "brent.rodriquez@test.com",
   "company_id": 1, "active_status": true, "tokens": 96}
]`

const companiesJSON = `[
  {"id": 1, "name": "Blue Cat Inc.", "top_up": 71, "email_status": false},
  {"id": 2, "name": "Yellow Mouse Inc.", "top_up": 37, "email_status": true}
]`

const companiesYAML = `
- id: 1
  name: Blue Cat Inc.
  top_up: 71
  email_status: false
- id: 2
  name: Yellow Mouse Inc.
  top_up: 37
  email_status: true
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_JSON(t *testing.T) {
	dir := t.TempDir()
	usersFile := writeFile(t, dir, "users.json", usersJSON)
	companiesFile := writeFile(t, dir, "companies.json", companiesJSON)

	ds, err := Load(context.Background(), usersFile, companiesFile)
	require.NoError(t, err)

	require.Len(t, ds.Users, 2)
	assert.Equal(t, models.User{
		Id: 1, FirstName: "Tanya", LastName: "Nichols", Email: "tanya.nichols@test.com",
		CompanyId: 2, EmailStatus: true, ActiveStatus: false, Tokens: 23,
	}, ds.Users[0])
	assert.False(t, ds.Users[1].EmailStatus, "missing flag decodes as false")

	require.Len(t, ds.Companies, 2)
	assert.Equal(t, models.Company{Id: 2, Name: "Yellow Mouse Inc.", TopUp: 37, EmailStatus: true}, ds.Companies[1])
}

func TestLoad_YAMLCompanies(t *testing.T) {
	dir := t.TempDir()
	usersFile := writeFile(t, dir, "users.json", usersJSON)
	companiesFile := writeFile(t, dir, "companies.yml", companiesYAML)

	ds, err := Load(context.Background(), usersFile, companiesFile)
	require.NoError(t, err)

	require.Len(t, ds.Companies, 2)
	assert.Equal(t, models.Company{Id: 1, Name: "Blue Cat Inc.", TopUp: 71}, ds.Companies[0])
}

func TestLoad_MissingFile(t *testing.T) {
	dir := t.TempDir()
	companiesFile := writeFile(t, dir, "companies.json", companiesJSON)

	_, err := Load(context.Background(), filepath.Join(dir, "missing.json"), companiesFile)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReadFile))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "missing.json")
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	usersFile := writeFile(t, dir, "users.json", usersJSON)
	companiesFile := writeFile(t, dir, "companies.json", `{"id": 1,`)

	_, err := Load(context.Background(), usersFile, companiesFile)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParseFile))
	assert.Contains(t, err.Error(), "JSON")
	assert.Contains(t, err.Error(), "companies.json")
}

func TestLoad_WrongShape(t *testing.T) {
	dir := t.TempDir()
	usersFile := writeFile(t, dir, "users.json", `{"id": 1}`)
	companiesFile := writeFile(t, dir, "companies.json", companiesJSON)

	_, err := Load(context.Background(), usersFile, companiesFile)

	assert.True(t, errors.Is(err, ErrParseFile))
}

func TestLoad_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, "users.json", "companies.json")

	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"users.json", formatJSON},
		{"users.yaml", formatYAML},
		{"USERS.YML", formatYAML},
		{"users", formatJSON},
	}
	for _, tt := range tests {
		if got := formatFor(tt.path); got != tt.want {
			t.Errorf("formatFor(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
