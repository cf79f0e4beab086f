package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestInitCmdCreatesStore(t *testing.T) {
	home := setupHome(t)

	root := NewRootCmd("dev", newApp())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"init", "https://github.com/alice/memories"})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	storeRoot := filepath.Join(home, ".memsync")
	for _, f := range []string{"memories.yaml", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(storeRoot, f)); os.IsNotExist(err) {
			t.Errorf("%s not created", f)
		}
	}
}

func TestInitCmdRejectsInvalidRemote(t *testing.T) {
	setupHome(t)

	root := NewRootCmd("dev", newApp())
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"init", "ftp://github.com/alice/memories"})

	if err := root.Execute(); err == nil {
		t.Error("expected invalid remote to fail")
	}
}

func TestInitCmdStoreOverride(t *testing.T) {
	home := setupHome(t)

	root := NewRootCmd("dev", newApp())
	root.SetOut(new(bytes.Buffer))
	root.SetArgs([]string{"init", "https://github.com/alice/memories", "--store", "work"})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if _, err := os.Stat(filepath.Join(home, ".memsync", "work.yaml")); os.IsNotExist(err) {
		t.Error("work.yaml not created for store override")
	}
}
