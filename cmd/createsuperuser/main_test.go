package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"moneta/internal/logger"
	"moneta/internal/models"
	"moneta/internal/testutil"
)

func useTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.Init("test")

	db := testutil.SetupTestDB(t)
	original := openDB
	openDB = func() (*gorm.DB, func() error, error) {
		return db, func() error { return nil }, nil
	}
	t.Cleanup(func() {
		openDB = original
		testutil.TeardownTestDB(t, db)
	})
	return db
}

func TestRun_CreatesSuperuser(t *testing.T) {
	db := useTestDB(t)
	var stdout, stderr bytes.Buffer

	err := run([]string{"-email", "Admin@Example.com", "-fullname", "Root"}, strings.NewReader("Sup3r!pass\n"), &stdout, &stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Superuser admin@example.com created")

	var user models.User
	require.NoError(t, db.Where("email = ?", "admin@example.com").First(&user).Error)
	assert.True(t, user.IsActive)
	assert.True(t, user.IsStaff)
	assert.True(t, user.IsSuperuser)
	assert.Equal(t, "Root", user.Fullname)
}

func TestRun_Duplicate(t *testing.T) {
	useTestDB(t)
	args := []string{"-email", "admin@example.com", "-password", "Sup3r!pass"}

	require.NoError(t, run(args, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{}))

	err := run(args, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRun_RejectsBadInput(t *testing.T) {
	useTestDB(t)

	tests := []struct {
		name    string
		args    []string
		stdin   string
		wantErr string
	}{
		{name: "missing email", args: nil, wantErr: "missing required flag"},
		{name: "bad email", args: []string{"-email", "nope", "-password", "Sup3r!pass"}, wantErr: "email:"},
		{name: "weak password", args: []string{"-email", "a@b.co", "-password", "weak"}, wantErr: "password:"},
		{name: "empty stdin", args: []string{"-email", "a@b.co"}, stdin: "", wantErr: "failed to read password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.args, strings.NewReader(tt.stdin), &bytes.Buffer{}, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
