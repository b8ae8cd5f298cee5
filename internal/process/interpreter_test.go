package process

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveInterpreter(t *testing.T) {
	plain := t.TempDir() + "/plain"
	require.NoError(t, os.WriteFile(plain, nil, 0o644))

	found := FinderFunc(func() (string, error) { return "/bin/sh", nil })
	failing := FinderFunc(func() (string, error) { return "", errors.New("not found") })
	bogus := FinderFunc(func() (string, error) { return plain, nil })

	tests := []struct {
		name       string
		configured string
		finder     Finder
		want       string
		wantErr    bool
	}{
		{"configured executable", "/bin/sh", nil, "/bin/sh", false},
		{"missing uses finder", "/does/not/exist", found, "/bin/sh", false},
		{"not executable uses finder", plain, found, "/bin/sh", false},
		{"empty uses finder", "", found, "/bin/sh", false},
		{"missing without finder", "/does/not/exist", nil, "", true},
		{"finder fails", "/does/not/exist", failing, "", true},
		{"finder returns unusable path", "/does/not/exist", bogus, "", true},
		{"directory is not executable", t.TempDir(), nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveInterpreter(tt.configured, tt.finder)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultFinderSearchesPath(t *testing.T) {
	o := defaultOptions()
	WithInterpreter("/nowhere/sh")(&o)

	path, err := o.resolveFinder().Find()
	require.NoError(t, err)
	assert.True(t, isExecutable(path))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "created", StateCreated.String())
	assert.Equal(t, "synced", StateSynced.String())
	assert.Equal(t, "unknown", State(42).String())
}
