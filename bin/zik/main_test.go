package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestBootstrapLoadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ZIK_MODE=prod\n"), 0o600))

	viper.Set("data", dir)
	t.Cleanup(func() {
		viper.Set("data", "")
		os.Unsetenv("ZIK_MODE")
	})

	prof, st, err := bootstrap()
	require.NoError(t, err)
	defer st.Close()

	require.Equal(t, "prod", prof.Mode)
	require.Equal(t, dir, prof.Data)
}
