/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolve

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"bennypowers.dev/resolvekit/bridge"
	"bennypowers.dev/resolvekit/resolver"
	"bennypowers.dev/resolvekit/testutil"
)

func workspaceResolver(t *testing.T) *resolver.Resolver {
	t.Helper()
	mfs := testutil.NewFixtureFS(t, "fixtures/workspace", "/repo")
	r, err := resolver.NewFactoryWithContext(bridge.NewReadable(mfs), "/repo/src").Get("normal", resolver.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func TestResolveRequests_JSON(t *testing.T) {
	r := workspaceResolver(t)

	rows, err := resolveRequests(context.Background(), r, "/repo/src", []string{"./util", "lodash?raw", "@acme/ui#main"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := writeJSON(&buf, rows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.UpdateGoldenFile(t, "golden/resolve.json", buf.Bytes())
	want := testutil.LoadFixtureFile(t, "golden/resolve.json")
	if buf.String() != string(want) {
		t.Errorf("output mismatch\nwant:\n%s\ngot:\n%s", want, buf.String())
	}
}

func TestResolveRequests_Table(t *testing.T) {
	r := workspaceResolver(t)

	rows, err := resolveRequests(context.Background(), r, "/repo/src", []string{"./index", "lodash/fp/map?x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := writeTable(&buf, rows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "./index ") || !strings.HasSuffix(lines[0], " /repo/src/index.js") {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], " /repo/node_modules/lodash/fp/map.js?x") {
		t.Errorf("unexpected second line %q", lines[1])
	}
}

func TestResolveRequests_Failure(t *testing.T) {
	r := workspaceResolver(t)

	_, err := resolveRequests(context.Background(), r, "/repo/src", []string{"./util", "left-pad"})
	if err == nil {
		t.Fatal("expected error for missing package")
	}
	if !strings.Contains(err.Error(), "can't resolve 'left-pad' in '/repo/src'") {
		t.Errorf("unexpected error %q", err)
	}
}
