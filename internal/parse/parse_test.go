package parse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/docreflect/internal/lang"
	"github.com/phobologic/docreflect/internal/model"
)

func extract(t *testing.T, source string) model.FileInfo {
	t.Helper()
	l := lang.Languages["php"]
	require.NotNil(t, l, "php language not registered")
	info, err := ExtractFile(context.Background(), l.NewParser(), []byte(source), "test.php")
	require.NoError(t, err)
	return info
}

const userSource = `<?php
namespace App\Models;

use App\Contracts\HasName;
use Vendor\Log\Logger as Log;
use function Vendor\helper;

/**
 * A registered user.
 *
 * @entity users
 */
final class User extends Model implements HasName, \JsonSerializable
{
    use SoftDeletes;

    /** Table name. */
    const TABLE = 'users';

    /** @var string */
    protected $name = 'anon';

    private static ?int $count = null;

    public function __construct(private readonly int $id, string $name = 'x')
    {
        $this->name = $name;
    }

    /**
     * Returns the name.
     */
    public function getName(): string
    {
        return $this->name;
    }

    public static function find(int $id, array &$opts = [], string ...$tags): ?self
    {
        Log::info('find');
        $x = new Query();
        if ($x instanceof Builder) {
            return null;
        }
        return static::make();
    }
}
`

func TestExtractNamespaceAndUses(t *testing.T) {
	t.Parallel()
	info := extract(t, userSource)

	assert.Equal(t, "test.php", info.Path)
	assert.Equal(t, "php", info.Language)
	assert.Equal(t, `App\Models`, info.Namespace)
	require.Len(t, info.Uses, 3)
	assert.Equal(t, model.UseAlias{Name: `App\Contracts\HasName`, Kind: model.UseClass, Line: 4}, info.Uses[0])
	assert.Equal(t, model.UseAlias{Name: `Vendor\Log\Logger`, Alias: "Log", Kind: model.UseClass, Line: 5}, info.Uses[1])
	assert.Equal(t, `Vendor\helper`, info.Uses[2].Name)
	assert.Equal(t, model.UseFunction, info.Uses[2].Kind)
}

func TestExtractClass(t *testing.T) {
	t.Parallel()
	info := extract(t, userSource)

	require.Len(t, info.Classes, 1)
	c := info.Classes[0]
	assert.Equal(t, "User", c.Name)
	assert.Equal(t, `App\Models\User`, c.FQN())
	assert.Equal(t, model.Class, c.Kind)
	assert.True(t, c.Final)
	assert.False(t, c.Abstract)
	assert.Equal(t, `App\Models\Model`, c.Parent)
	assert.Equal(t, []string{`App\Contracts\HasName`, "JsonSerializable"}, c.Interfaces)
	assert.Equal(t, []string{`App\Models\SoftDeletes`}, c.Traits)
	assert.Contains(t, c.Doc, "A registered user.")
	assert.Contains(t, c.Doc, "@entity users")
	assert.Equal(t, 13, c.Line)
}

func TestExtractMembers(t *testing.T) {
	t.Parallel()
	c := extract(t, userSource).Classes[0]

	require.Len(t, c.Constants, 1)
	assert.Equal(t, "TABLE", c.Constants[0].Name)
	assert.Equal(t, "'users'", c.Constants[0].Value)
	assert.Equal(t, "/** Table name. */", c.Constants[0].Doc)

	name, ok := c.Property("name")
	require.True(t, ok)
	assert.Equal(t, "protected", name.Visibility)
	assert.True(t, name.HasDefault)
	assert.Equal(t, "'anon'", name.Default)
	assert.Equal(t, "/** @var string */", name.Doc)

	count, ok := c.Property("count")
	require.True(t, ok)
	assert.True(t, count.Static)
	assert.Equal(t, "private", count.Visibility)
	assert.Equal(t, "?int", count.Type)

	id, ok := c.Property("id")
	require.True(t, ok, "promoted constructor property")
	assert.Equal(t, "private", id.Visibility)
	assert.True(t, id.Readonly)
	assert.Equal(t, "int", id.Type)

	require.Len(t, c.Methods, 3)
	ctor := c.Methods[0]
	assert.Equal(t, "__construct", ctor.Name)
	require.Len(t, ctor.Params, 2)
	assert.True(t, ctor.Params[0].Promoted)
	assert.Equal(t, model.Parameter{Name: "name", Type: "string", Default: "'x'", HasDefault: true}, ctor.Params[1])

	get, ok := c.Method("getname")
	require.True(t, ok)
	assert.Equal(t, "public", get.Visibility)
	assert.False(t, get.Static)
	assert.Equal(t, "string", get.ReturnType)
	assert.Contains(t, get.Doc, "Returns the name.")

	find, ok := c.Method("find")
	require.True(t, ok)
	assert.True(t, find.Static)
	assert.Equal(t, "?self", find.ReturnType)
	assert.Empty(t, find.Doc)
	require.Len(t, find.Params, 3)
	assert.Equal(t, "id", find.Params[0].Name)
	assert.True(t, find.Params[1].ByRef)
	assert.Equal(t, "[]", find.Params[1].Default)
	assert.True(t, find.Params[2].Variadic)
	assert.Equal(t, "tags", find.Params[2].Name)
	assert.Equal(t, "find(int $id, array &$opts = [], string ...$tags): ?self", find.Signature())
}

func TestExtractReferences(t *testing.T) {
	t.Parallel()
	info := extract(t, userSource)

	var names []string
	for _, r := range info.References {
		names = append(names, r.Name)
	}
	assert.Contains(t, names, `Vendor\Log\Logger`)
	assert.Contains(t, names, `App\Models\Query`)
	assert.Contains(t, names, `App\Models\Builder`)
	assert.NotContains(t, names, "static")
}

func TestExtractInterfaceTraitEnum(t *testing.T) {
	t.Parallel()
	info := extract(t, `<?php
namespace Shop;

interface Priced extends Countable, \Stringable
{
    public function price(): int;
}

trait Discounts
{
    use Rounding;
}

enum Status: string implements Priced
{
    case Active = 'active';
    case Closed = 'closed';
}

abstract class Base {}
`)

	require.Len(t, info.Classes, 4)

	priced := info.Classes[0]
	assert.Equal(t, model.Interface, priced.Kind)
	assert.Equal(t, []string{`Shop\Countable`, "Stringable"}, priced.Interfaces)
	assert.Empty(t, priced.Parent)
	require.Len(t, priced.Methods, 1)
	assert.Equal(t, "price", priced.Methods[0].Name)

	discounts := info.Classes[1]
	assert.Equal(t, model.Trait, discounts.Kind)
	assert.Equal(t, []string{`Shop\Rounding`}, discounts.Traits)

	status := info.Classes[2]
	assert.Equal(t, model.Enum, status.Kind)
	assert.Equal(t, []string{`Shop\Priced`}, status.Interfaces)
	require.Len(t, status.Constants, 2)
	assert.Equal(t, "Active", status.Constants[0].Name)
	assert.Equal(t, "'active'", status.Constants[0].Value)

	base := info.Classes[3]
	assert.True(t, base.Abstract)
	assert.Equal(t, `Shop\Base`, base.FQN())
}

func TestExtractFunctionsGlobalNamespace(t *testing.T) {
	t.Parallel()
	info := extract(t, `<?php
/**
 * Adds numbers.
 */
function add(int $a, int $b = 1): int
{
    return $a + $b;
}
`)

	assert.Empty(t, info.Namespace)
	require.Len(t, info.Functions, 1)
	f := info.Functions[0]
	assert.Equal(t, "add", f.FQN())
	assert.Equal(t, "add(int $a, int $b = 1): int", f.Signature())
	assert.Contains(t, f.Doc, "Adds numbers.")
	assert.Equal(t, 5, f.Line)
}

func TestExtractGroupUse(t *testing.T) {
	t.Parallel()
	info := extract(t, `<?php
namespace App;

use Vendor\Http\{Request, Response as Res};

class Controller
{
    public function handle(): void
    {
        new Res();
    }
}
`)

	require.Len(t, info.Uses, 2)
	assert.Equal(t, `Vendor\Http\Request`, info.Uses[0].Name)
	assert.Empty(t, info.Uses[0].Alias)
	assert.Equal(t, `Vendor\Http\Response`, info.Uses[1].Name)
	assert.Equal(t, "Res", info.Uses[1].Alias)

	require.Len(t, info.References, 1)
	assert.Equal(t, `Vendor\Http\Response`, info.References[0].Name)
}

func TestExtractBracedNamespaces(t *testing.T) {
	t.Parallel()
	info := extract(t, `<?php
namespace First {
    class A {}
}
namespace Second {
    class B extends \First\A {}
}
`)

	assert.Equal(t, "First", info.Namespace)
	require.Len(t, info.Classes, 2)
	assert.Equal(t, `First\A`, info.Classes[0].FQN())
	assert.Equal(t, `Second\B`, info.Classes[1].FQN())
	assert.Equal(t, `First\A`, info.Classes[1].Parent)
}

func TestExtractEmptySource(t *testing.T) {
	t.Parallel()
	info := extract(t, "")
	assert.Equal(t, "test.php", info.Path)
	assert.Empty(t, info.Classes)
}

func TestPlainCommentIsNotDoc(t *testing.T) {
	t.Parallel()
	info := extract(t, `<?php
/* not a doc comment */
class Plain {}
`)
	require.Len(t, info.Classes, 1)
	assert.Empty(t, info.Classes[0].Doc)
}
