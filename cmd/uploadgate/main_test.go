package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/uploadgate/upload/configstore"
)

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cmd := versionCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--short"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, version+"\n", out.String())
}

func TestCommandNames(t *testing.T) {
	t.Parallel()

	var names []string
	for _, c := range []*cobra.Command{serveCmd(), migrateCmd(), cleanupCmd(), hashPasswordCmd(), versionCmd()} {
		names = append(names, c.Name())
		assert.NotEmpty(t, c.Short)
	}
	assert.Equal(t, []string{"serve", "migrate", "cleanup", "hash-password", "version"}, names)
}

func TestHashPasswordCmd(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cmd := hashPasswordCmd()
	cmd.SetIn(strings.NewReader("s3cret\n"))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))

	empty := hashPasswordCmd()
	empty.SetIn(strings.NewReader("\n"))
	empty.SetOut(&out)
	empty.SetArgs([]string{})
	assert.ErrorIs(t, empty.Execute(), configstore.ErrWeakPassword)
}
