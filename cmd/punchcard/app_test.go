package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/punchcard/internal/config"
)

func TestCloseDetachesPanelFromStore(t *testing.T) {
	saved := panelOutput
	panelOutput = &bytes.Buffer{}
	defer func() { panelOutput = saved }()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Backend.Type = "null"
	cfg.History.Dir = filepath.Join(dir, "history")
	cfg.Log.File = filepath.Join(dir, "punchcard.log")

	a, err := newApp(context.Background(), cfg, true, nil)
	require.NoError(t, err)
	require.NotNil(t, a.panelSub, "the null backend leaves the panel to follow the store")
	require.Equal(t, 2, a.store.Observers())

	require.NoError(t, a.close())
	require.False(t, a.panelSub.Active())
	require.Equal(t, 0, a.store.Observers())
}
