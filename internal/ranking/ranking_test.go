package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/docreflect/internal/model"
)

func makeRepoMap() *model.RepoMap {
	user := model.ClassInfo{
		Name: "User", Namespace: "App", Kind: model.Class,
		Parent: `App\Model`,
		Constants: []model.Constant{
			{Name: "TABLE", Value: "'users'", Doc: "/** Table name. */", Line: 4},
		},
		Properties: []model.Property{
			{Name: "count", Visibility: "private", Static: true, Type: "?int", Default: "null", HasDefault: true, Line: 5},
		},
		Methods: []model.Method{
			{
				Name: "find", Visibility: "public", Static: true, Line: 7,
				Params:     []model.Parameter{{Name: "id", Type: "int"}},
				ReturnType: "?self",
				Doc:        "/**\n * Finds a user.\n *\n * @param int $id\n */",
			},
		},
	}

	return &model.RepoMap{
		RepoName: "test",
		Root:     "test",
		Files: []model.FileInfo{
			{Path: "src/User.php", Language: "php", Rank: 0.5, Classes: []model.ClassInfo{user}},
			{Path: "src/Model.php", Language: "php", Rank: 0.3, Classes: []model.ClassInfo{
				{Name: "Model", Namespace: "App", Kind: model.Class},
			}},
			{Path: "lib/Util.php", Language: "php", Rank: 0.2, Classes: []model.ClassInfo{
				{Name: "Util", Namespace: "Lib", Kind: model.Class},
			}},
		},
		Dependencies: []model.Dependency{
			{Source: "src/User.php", Target: "src/Model.php", Classes: []string{`App\Model`}},
			{Source: "src/User.php", Target: "lib/Util.php", Classes: []string{`Lib\Util`}},
			{Source: "src/Model.php", Target: "lib/Util.php", Classes: []string{`Lib\Util`}},
		},
		Relations: []model.Relation{
			{Class: `App\User`, Kind: model.Extends, Target: `App\Model`},
			{Class: `Lib\Util`, Kind: model.Implements, Target: "Countable"},
		},
	}
}

func TestSelectFilesAll(t *testing.T) {
	t.Parallel()

	rm := makeRepoMap()
	assert.Same(t, rm, SelectFiles(rm, 0), "maxFiles=0 should return original")
	assert.Same(t, rm, SelectFiles(rm, 5), "maxFiles > len should return original")
	assert.Same(t, rm, SelectFiles(rm, 3), "maxFiles == len should return original")
}

func TestSelectFilesSubset(t *testing.T) {
	t.Parallel()

	got := SelectFiles(makeRepoMap(), 2)

	require.Len(t, got.Files, 2)
	assert.Equal(t, "src/User.php", got.Files[0].Path)
	assert.Equal(t, "src/Model.php", got.Files[1].Path)

	// Only User→Model survives (Util not selected)
	require.Len(t, got.Dependencies, 1)
	assert.Equal(t, "src/Model.php", got.Dependencies[0].Target)

	require.Len(t, got.Relations, 1)
	assert.Equal(t, `App\User`, got.Relations[0].Class)
}

func TestSelectFilesOne(t *testing.T) {
	t.Parallel()

	got := SelectFiles(makeRepoMap(), 1)
	assert.Len(t, got.Files, 1)
	assert.Empty(t, got.Dependencies)
}

func TestFilterByClass(t *testing.T) {
	t.Parallel()

	got := FilterByClass(makeRepoMap(), `\app\user`)

	// Model comes along through the extends relation.
	require.Len(t, got.Files, 2)
	assert.Equal(t, "src/User.php", got.Files[0].Path)
	assert.Equal(t, "src/Model.php", got.Files[1].Path)
	assert.Len(t, got.Dependencies, 3)
	assert.Equal(t, []model.Relation{{Class: `App\User`, Kind: model.Extends, Target: `App\Model`}}, got.Relations)

	require.Len(t, got.Members, 3)
	assert.Equal(t, model.Member{
		Class: `App\User`, Kind: "constant", Name: "TABLE", Signature: "TABLE = 'users'",
		Summary: "Table name.", Line: 4,
	}, got.Members[0])
	assert.Equal(t, "private static ?int $count = null", got.Members[1].Signature)
	assert.Equal(t, "$count", got.Members[1].Name)
	assert.Equal(t, "public static find(int $id): ?self", got.Members[2].Signature)
	assert.Equal(t, "Finds a user.", got.Members[2].Summary)
}

func TestFilterByClassNoMatch(t *testing.T) {
	t.Parallel()

	got := FilterByClass(makeRepoMap(), "Nothing")
	assert.Empty(t, got.Files)
	assert.Empty(t, got.Dependencies)
	assert.Empty(t, got.Members)
}

func TestFilterByFile(t *testing.T) {
	t.Parallel()

	got := FilterByFile(makeRepoMap(), "LIB/")
	require.Len(t, got.Files, 1)
	assert.Equal(t, "lib/Util.php", got.Files[0].Path)
	assert.Len(t, got.Dependencies, 2)
	assert.Equal(t, []model.Relation{{Class: `Lib\Util`, Kind: model.Implements, Target: "Countable"}}, got.Relations)
	assert.Empty(t, got.Members)
}
