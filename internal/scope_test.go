package internal

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestScopePathDerivation(t *testing.T) {
	scope := Scope{Root: "/home/alice/.memsync", Store: "work"}

	cases := []struct {
		got, want string
	}{
		{scope.CachePath(), "/home/alice/.memsync/work.yaml"},
		{scope.LockPath(), "/home/alice/.memsync/work.lock"},
		{scope.RemotePath(), "/home/alice/.memsync/remote"},
		{scope.CorpusPath(), "/home/alice/.memsync/remote/work.jsonl"},
		{scope.HistoricalPath(), "/home/alice/.memsync/remote/historical"},
		{scope.ConfigPath(), "/home/alice/.memsync/config.yaml"},
	}

	for _, tc := range cases {
		if tc.got != filepath.FromSlash(tc.want) {
			t.Errorf("got %q, want %q", tc.got, tc.want)
		}
	}

	if scope.CorpusFile() != "work.jsonl" {
		t.Errorf("corpus file = %q", scope.CorpusFile())
	}
}

func TestResolveDefaultsStoreName(t *testing.T) {
	resolver := NewScopeResolver()

	scope := resolver.Resolve("")
	if scope.Store != DefaultStoreName {
		t.Errorf("store = %q, want %q", scope.Store, DefaultStoreName)
	}
	if !strings.HasSuffix(scope.Root, filepath.FromSlash(".memsync")) {
		t.Errorf("root = %q", scope.Root)
	}

	override := resolver.Resolve("scratch")
	if override.Store != "scratch" {
		t.Errorf("store = %q, want scratch", override.Store)
	}
	if override.Root != scope.Root {
		t.Error("store override must not move the root")
	}
}

func TestDistinctStoresDistinctLocks(t *testing.T) {
	resolver := NewScopeResolver()

	a := resolver.Resolve("a")
	b := resolver.Resolve("b")
	if a.LockPath() == b.LockPath() {
		t.Error("two stores share one lock scope")
	}
}
