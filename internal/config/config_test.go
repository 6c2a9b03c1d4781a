package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "furrowdb.yml")
	require.NoError(t, os.WriteFile(path, []byte("data_file: /tmp/foo.cdb\npage_size: 4096\nlog_level: debug\nmmap: true\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/foo.cdb", cfg.DataFile)
	require.Equal(t, 4096, cfg.PageSize)
	require.Equal(t, "debug", cfg.LogLevel)
	require.True(t, cfg.Mmap)
}

func TestLoadFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "furrowdb.yml")
	require.NoError(t, os.WriteFile(path, []byte("data_file: /tmp/foo.cdb\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 1024, cfg.PageSize)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestDefault(t *testing.T) {
	cfg := Default("/tmp/foo.cdb")
	require.Equal(t, "/tmp/foo.cdb", cfg.DataFile)
	require.Equal(t, 1024, cfg.PageSize)
}
