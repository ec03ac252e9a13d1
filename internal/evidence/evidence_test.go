// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package evidence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_StaticAndDynamicImports(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.ts"), []byte(`
import _ from "lodash";
import { red } from '@colors/colors';
const c = require("chalk");
async function lazy() { await import('left-pad'); }
import "./local-only";
`), 0o644))

	idx, err := Build(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, idx.ScannedFiles)
	assert.Equal(t, []string{"index.ts"}, idx.Lookup("lodash"))
	assert.Equal(t, []string{"index.ts"}, idx.Lookup("chalk"))
	assert.Equal(t, []string{"index.ts"}, idx.Lookup("@colors/colors"))
	assert.Equal(t, []string{"index.ts"}, idx.Lookup("left-pad"))
	assert.Nil(t, idx.Lookup("local-only"))
}

func TestBuild_ExcludesNodeModulesAndNonJSFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules", "lodash"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "node_modules", "lodash", "index.js"), []byte(`require("should-not-count")`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte(`import "should-not-count"`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte(`import "lodash"`), 0o644))

	idx, err := Build(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, idx.ScannedFiles)
	assert.Equal(t, []string{"app.js"}, idx.Lookup("lodash"))
	assert.Nil(t, idx.Lookup("should-not-count"))
}

func TestEmpty_HasNoEntries(t *testing.T) {
	idx := Empty()
	assert.Nil(t, idx.Lookup("anything"))
	assert.Equal(t, 0, idx.ScannedFiles)
}

func TestNormalizeSpecifier(t *testing.T) {
	assert.Equal(t, "lodash", normalizeSpecifier("lodash/fp"))
	assert.Equal(t, "@scope/pkg", normalizeSpecifier("@scope/pkg/sub"))
	assert.Equal(t, "", normalizeSpecifier("./relative"))
	assert.Equal(t, "", normalizeSpecifier("/absolute"))
}
