package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMigrator struct {
	version uint
	dirty   bool
	down    []int
	forced  []int
	err     error
}

func (f *fakeMigrator) Up() (uint, error) { return f.version, f.err }

func (f *fakeMigrator) Down(steps int) error {
	f.down = append(f.down, steps)
	return f.err
}

func (f *fakeMigrator) Version() (uint, bool, error) { return f.version, f.dirty, f.err }

func (f *fakeMigrator) Force(v int) error {
	f.forced = append(f.forced, v)
	return f.err
}

func TestExecute(t *testing.T) {
	f := &fakeMigrator{version: 1}
	var out bytes.Buffer

	require.NoError(t, execute(f, []string{"up"}, &out))
	assert.Contains(t, out.String(), "version: 1")

	require.NoError(t, execute(f, []string{"down"}, &out))
	require.NoError(t, execute(f, []string{"down", "3"}, &out))
	require.NoError(t, execute(f, []string{"down", "all"}, &out))
	assert.Equal(t, []int{1, 3, 0}, f.down)

	out.Reset()
	f.dirty = true
	require.NoError(t, execute(f, []string{"version"}, &out))
	assert.Equal(t, "version: 1  dirty: true\n", out.String())

	require.NoError(t, execute(f, []string{"force", "1"}, &out))
	assert.Equal(t, []int{1}, f.forced)
}

func TestExecute_UsageErrors(t *testing.T) {
	for _, args := range [][]string{
		{"sideways"},
		{"down", "0"},
		{"down", "x"},
		{"force"},
		{"force", "v1"},
	} {
		err := execute(&fakeMigrator{}, args, &bytes.Buffer{})
		assert.ErrorIs(t, err, errUsage, "%v", args)
	}
}

func TestExecute_PropagatesMigratorError(t *testing.T) {
	boom := errors.New("boom")
	err := execute(&fakeMigrator{err: boom}, []string{"up"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, boom)
}
