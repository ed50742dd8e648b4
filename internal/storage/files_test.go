package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAllowed(t *testing.T) {
	restricted := New(t.TempDir(), map[string]bool{"pdf": true, "png": true})
	open := New(t.TempDir(), nil)

	cases := []struct {
		name     string
		store    *Store
		filename string
		want     bool
	}{
		{"listed extension", restricted, "report.pdf", true},
		{"listed extension uppercased", restricted, "SCAN.PNG", true},
		{"unlisted extension", restricted, "report.exe", false},
		{"no extension", restricted, "README", false},
		{"trailing dot only", restricted, "weird.", false},
		{"empty list accepts anything", open, "anything.xyz", true},
		{"empty list accepts no extension", open, "Makefile", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.store.IsAllowed(tc.filename))
		})
	}
}

func TestStorageName(t *testing.T) {
	s := New(t.TempDir(), nil)

	name, err := s.StorageName("Quarterly Report (final).PDF")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".pdf"), "extension must be lowercased: %s", name)
	assert.True(t, strings.HasPrefix(name, "Quarterly_Report_final"), "base must be sanitized: %s", name)
	assert.NotContains(t, name, " ")
	assert.NotContains(t, name, "(")

	// Two names from the same original must differ.
	other, err := s.StorageName("Quarterly Report (final).PDF")
	require.NoError(t, err)
	assert.NotEqual(t, name, other)
}

func TestStorageNameTruncatesLongBase(t *testing.T) {
	s := New(t.TempDir(), nil)
	long := strings.Repeat("a", 500) + ".txt"
	name, err := s.StorageName(long)
	require.NoError(t, err)
	// base (200) + "_" + 32 hex chars + ".txt"
	assert.LessOrEqual(t, len(name), maxBaseLen+1+32+4)
	assert.True(t, strings.HasSuffix(name, ".txt"))
}

func TestStorageNameExoticBase(t *testing.T) {
	s := New(t.TempDir(), nil)
	name, err := s.StorageName("файл отчёта.txt")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "file_"), "fully exotic base falls back to file: %s", name)
}

func TestSanitizeBase(t *testing.T) {
	cases := []struct{ in, want string }{
		{"simple", "simple"},
		{"with space", "with_space"},
		{"a///b", "a_b"},
		{"..hidden..", "hidden"},
		{"___", "file"},
		{"", "file"},
		{"v1.2-rc3", "v1.2-rc3"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, sanitizeBase(tc.in), "input %q", tc.in)
	}
}

func TestSaveRemoveRoundTrip(t *testing.T) {
	s := New(t.TempDir(), nil)
	require.NoError(t, s.Save("doc_ab.txt", strings.NewReader("hello")))
	require.NoError(t, s.Remove("doc_ab.txt"))
	// Removing again must stay idempotent.
	require.NoError(t, s.Remove("doc_ab.txt"))
}
