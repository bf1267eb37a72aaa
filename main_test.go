package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/docreflect/internal/model"
	"github.com/phobologic/docreflect/internal/reflector"
	"github.com/phobologic/docreflect/pkg/callable"
)

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func createSampleRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "src/Models/Model.php", `<?php
namespace App\Models;

/**
 * Base persistence model.
 */
abstract class Model
{
    protected int $id = 0;

    /**
     * Saves the record.
     */
    public function save(): bool
    {
        return true;
    }
}
`)
	writeTestFile(t, dir, "src/Models/User.php", `<?php
namespace App\Models;

use App\Support\Formatter as Fmt;

/**
 * A registered user.
 *
 * @property string $name
 */
class User extends Model
{
    public function __construct(private string $name)
    {
    }

    /**
     * Finds a user by id.
     *
     * @param int $id
     */
    public static function find(int $id): ?self
    {
        return null;
    }

    public function label(): string
    {
        return Fmt::title($this->name);
    }
}
`)
	writeTestFile(t, dir, "src/Support/Formatter.php", `<?php
namespace App\Support;

class Formatter
{
    public static function title(string $s): string
    {
        return ucfirst($s);
    }
}
`)
	return dir
}

func runOK(t *testing.T, args ...string) string {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	require.NoError(t, err, "stderr: %s", stderr.String())
	return stdout.String()
}

func TestRunMap(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	out := runOK(t, dir)
	assert.Contains(t, out, "repo: "+filepath.Base(dir))
	assert.Contains(t, out, "files[3]{path,namespace,rank}:")
	assert.Contains(t, out, `src/Models/User.php,"App\\Models\\User",class,11,A registered user.`)
	assert.Contains(t, out, "dependencies[2]{source,target,classes}:")
	assert.Contains(t, out, `"App\\Models\\User",extends,"App\\Models\\Model"`)
}

func TestRunMapSubcommandJSON(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	out := runOK(t, "map", "--format", "json", dir)

	var rm model.RepoMap
	require.NoError(t, json.Unmarshal([]byte(out), &rm))
	assert.Len(t, rm.Files, 3)
	require.Len(t, rm.Dependencies, 2)
	for _, d := range rm.Dependencies {
		assert.Equal(t, "src/Models/User.php", d.Source)
	}
}

func TestRunMapYAML(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	out := runOK(t, "map", "-f", "yaml", dir)

	var rm model.RepoMap
	require.NoError(t, yaml.Unmarshal([]byte(out), &rm))
	assert.Equal(t, filepath.Base(dir), rm.RepoName)
	assert.Equal(t, filepath.Base(dir), rm.Root)
	require.Len(t, rm.Files, 3)
	assert.Len(t, rm.Dependencies, 2)

	var find *model.Method
	for _, f := range rm.Files {
		for i := range f.Classes {
			if m, ok := f.Classes[i].Method("find"); ok {
				find = m
			}
		}
	}
	require.NotNil(t, find)
	assert.Equal(t, "?self", find.ReturnType)
	assert.True(t, find.Static)

	// JSON and YAML share field names.
	jsonOut := runOK(t, "map", "-f", "json", dir)
	for _, key := range []string{"repo_name", "return_type", "has_default"} {
		assert.Contains(t, out, key+":")
		assert.Contains(t, jsonOut, `"`+key+`":`)
	}
}

func TestRunMaxFiles(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	assert.Contains(t, runOK(t, "-n", "1", dir), "files[1]")
}

func TestRunClassFilter(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	out := runOK(t, "--class", `Models\User`, dir)
	assert.Contains(t, out, "members[")
	assert.Contains(t, out, `"public static find(int $id): ?self",Finds a user by id.`)
	assert.Contains(t, out, "files[2]{path,namespace,rank}:")

	var stdout, stderr bytes.Buffer
	err := run([]string{"--class", "Nothing", dir}, &stdout, &stderr)
	assert.ErrorContains(t, err, "no classes matching")
}

func TestRunFileFilter(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	out := runOK(t, "--file", "support/", dir)
	assert.Contains(t, out, "files[1]{path,namespace,rank}:")
}

func TestRunCache(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	cachePath := filepath.Join(t.TempDir(), "cache.db")

	first := runOK(t, "--cache", cachePath, dir)
	_, err := os.Stat(cachePath)
	require.NoError(t, err)

	second := runOK(t, "--cache", cachePath, dir)
	assert.Equal(t, first, second)
}

func TestRunUsesConfigFile(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	writeTestFile(t, dir, "docreflect.yaml", "map:\n  max_files: 2\n")

	assert.Contains(t, runOK(t, dir), "files[2]")
	// Flags win over the file.
	assert.Contains(t, runOK(t, "-n", "1", dir), "files[1]")
}

func TestRunNoFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "readme.txt", "nothing here")

	var stdout, stderr bytes.Buffer
	err := run([]string{dir}, &stdout, &stderr)
	assert.ErrorIs(t, err, errNoFiles)
}

func TestRunNotADirectory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "a.php", "<?php")

	var stdout, stderr bytes.Buffer
	err := run([]string{filepath.Join(dir, "a.php")}, &stdout, &stderr)
	assert.ErrorContains(t, err, "not a directory")
}

func TestRunInvalidFormat(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--format", "xml", dir}, &stdout, &stderr)
	assert.ErrorContains(t, err, "Format")
}

func TestRunVersion(t *testing.T) {
	t.Parallel()
	assert.Contains(t, runOK(t, "--version"), "docreflect version dev")
}

func TestDocCommand(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "comment.txt", `/**
 * Finds a user.
 *
 * Looks in the primary store.
 *
 * @param int $id
 * @throws \RuntimeException
 */`)
	path := filepath.Join(dir, "comment.txt")

	out := runOK(t, "doc", path)
	assert.Contains(t, out, "summary: Finds a user.")
	assert.Contains(t, out, "description: Looks in the primary store.")
	assert.Contains(t, out, "annotations[2]{tag,value}:")

	assert.Equal(t, "int $id\n", runOK(t, "doc", "--tag", "@param", path))

	normalized := runOK(t, "doc", "--normalized", path)
	assert.Contains(t, normalized, "Finds a user.\n\nLooks in the primary store.")
	assert.NotContains(t, normalized, "/**")

	var view commentView
	require.NoError(t, json.Unmarshal([]byte(runOK(t, "doc", "-f", "json", path)), &view))
	assert.Equal(t, "Finds a user.", view.Summary)
	assert.Equal(t, []string{`\RuntimeException`}, view.Tags["throws"])

	var stdout, stderr bytes.Buffer
	err := run([]string{"doc", "--tag", "return", path}, &stdout, &stderr)
	assert.ErrorContains(t, err, "no @return annotation")

	err = run([]string{"doc", filepath.Join(dir, "missing.txt")}, &stdout, &stderr)
	assert.ErrorContains(t, err, "no such file")
}

func TestClassCommand(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	out := runOK(t, "class", `App\Models\User`, dir)
	assert.Contains(t, out, `class: "App\\Models\\User"`)
	assert.Contains(t, out, "file: src/Models/User.php")
	assert.Contains(t, out, "summary: A registered user.")
	assert.Contains(t, out, `parents[1]: "App\\Models\\Model"`)
	assert.Contains(t, out, "properties[2]: $name,$id")
	assert.Contains(t, out, "constructor[1]: string $name")
	assert.Contains(t, out, "members[")

	out = runOK(t, "class", `\app\models\user`, dir, "--member", "save")
	assert.Contains(t, out, "summary: Saves the record.")

	var stdout, stderr bytes.Buffer
	err := run([]string{"class", `App\Nope`, dir}, &stdout, &stderr)
	assert.ErrorIs(t, err, reflector.ErrUnknownClass)
}

func TestCallableCommand(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	out := runOK(t, "callable", `App\Models\User::find`, dir)
	assert.Contains(t, out, "kind: static_method_string")
	assert.Contains(t, out, `owner: "App\\Models\\User"`)
	assert.Contains(t, out, "name: find")
	assert.Contains(t, out, `static: "true"`)
	assert.Contains(t, out, "parameters[1]{name,optional,default}:\n  id,\"false\",\"\"")
	assert.Contains(t, out, "summary: Finds a user by id.")
	assert.NotContains(t, out, "diagnostics")

	out = runOK(t, "callable", `App\Models\User::save`, dir)
	assert.Contains(t, out, `owner: "App\\Models\\Model"`)
	assert.Contains(t, out, "diagnostics[1]{kind,message}:")
	assert.Contains(t, out, "deprecated_static_instance_call")

	out = runOK(t, "callable", `App\Models\User->label`, dir)
	assert.Contains(t, out, "kind: bound_method_pair")

	var stdout, stderr bytes.Buffer
	err := run([]string{"callable", `App\Models\User::nope`, dir}, &stdout, &stderr)
	assert.ErrorIs(t, err, callable.ErrUnknownMethod)
}

func TestClassCommandFromFile(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	out := runOK(t, "class", filepath.Join(dir, "src", "Models", "User.php"), dir)
	assert.Contains(t, out, `class: "App\\Models\\User"`)
	assert.Contains(t, out, "uses[1]{name,alias}:\n  \"App\\\\Support\\\\Formatter\",Fmt")
}
