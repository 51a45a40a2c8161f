package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "developers.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadDevelopers(t *testing.T) {
	path := writeCSV(t, `name,username,profile_url
Ada Lovelace,ada,https://github.com/ada
Grace Hopper,grace,https://github.com/grace
`)

	devs, err := ReadDevelopers(path)
	require.NoError(t, err)

	require.Len(t, devs, 2)
	assert.Equal(t, Developer{Name: "Ada Lovelace", Username: "ada", ProfileURL: "https://github.com/ada"}, devs[0])
	assert.Equal(t, "grace", devs[1].Username)
}

func TestReadDevelopers_DerivesUsernameFromProfileURL(t *testing.T) {
	path := writeCSV(t, `name,username,profile_url
Linus,,https://github.com/torvalds
`)

	devs, err := ReadDevelopers(path)
	require.NoError(t, err)

	require.Len(t, devs, 1)
	assert.Equal(t, "torvalds", devs[0].Username)
}

func TestReadDevelopers_SkipsRowsWithoutUsername(t *testing.T) {
	path := writeCSV(t, `name,username,profile_url
No GitHub,,https://example.com/profile
Has One,someone,https://github.com/someone
Empty Row,,
`)

	devs, err := ReadDevelopers(path)
	require.NoError(t, err)

	require.Len(t, devs, 1)
	assert.Equal(t, "someone", devs[0].Username)
}

func TestReadDevelopers_NameFallsBackToUsername(t *testing.T) {
	path := writeCSV(t, `name,username,profile_url
,octocat,https://github.com/octocat
`)

	devs, err := ReadDevelopers(path)
	require.NoError(t, err)

	require.Len(t, devs, 1)
	assert.Equal(t, "octocat", devs[0].Name)
}

func TestReadDevelopers_MissingColumnsFailTheRun(t *testing.T) {
	path := writeCSV(t, `name,login
Ada,ada
`)

	_, err := ReadDevelopers(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username")
	assert.Contains(t, err.Error(), "profile_url")
}

func TestReadDevelopers_MissingFile(t *testing.T) {
	_, err := ReadDevelopers(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestReadDevelopers_PreservesInputOrder(t *testing.T) {
	path := writeCSV(t, `name,username,profile_url
C,charlie,https://github.com/charlie
A,alice,https://github.com/alice
B,bob,https://github.com/bob
`)

	devs, err := ReadDevelopers(path)
	require.NoError(t, err)

	usernames := make([]string, len(devs))
	for i, d := range devs {
		usernames[i] = d.Username
	}
	assert.Equal(t, []string{"charlie", "alice", "bob"}, usernames)
}

func TestUsernameFromProfileURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"standard profile", "https://github.com/ada", "ada"},
		{"trailing slash", "https://github.com/ada/", "ada"},
		{"deep path keeps first segment", "https://github.com/ada/repo", "ada"},
		{"enterprise subdomain", "https://www.github.com/ada", "ada"},
		{"not github", "https://gitlab.com/ada", ""},
		{"empty", "", ""},
		{"garbage", "://not-a-url", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, usernameFromProfileURL(tt.url))
		})
	}
}

func TestReadTable_OrderedRowsKeyedByHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.csv")
	content := "name,bio,github\nAda,loves python,ada\nSam,short row\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rows, header, err := ReadTable(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "bio", "github"}, header)
	require.Len(t, rows, 2)
	assert.Equal(t, "loves python", rows[0]["bio"])
	assert.Equal(t, "ada", rows[0]["github"])
	assert.Equal(t, "", rows[1]["github"]) // short row pads empty

	_, _, err = ReadTable(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}
