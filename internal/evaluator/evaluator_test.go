package evaluator

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mika/internal/object"
	"mika/internal/runtime"
	"mika/internal/util"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newTestInterpreter(t *testing.T, cfg util.Configuration) (*Interpreter, *bytes.Buffer) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	var buf bytes.Buffer
	return New(runtime.NewRuntime(ctx, cfg), &buf), &buf
}

// run executes src and returns everything it printed, one entry per line.
func run(t *testing.T, src string) []string {
	t.Helper()
	interp, buf := newTestInterpreter(t, util.DefaultConfiguration())
	_, err := interp.Run(src)
	require.NoError(t, err, src)
	return lines(buf)
}

func runErr(t *testing.T, src string) error {
	t.Helper()
	interp, _ := newTestInterpreter(t, util.DefaultConfiguration())
	_, err := interp.Run(src)
	require.Error(t, err, src)
	return err
}

func lines(buf *bytes.Buffer) []string {
	out := strings.TrimRight(buf.String(), "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func expectOutput(t *testing.T, src string, want ...string) {
	t.Helper()
	if diff := cmp.Diff(want, run(t, src)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestExpressionValue(t *testing.T) {
	interp, _ := newTestInterpreter(t, util.DefaultConfiguration())
	val, err := interp.Run(`var a = 4; a * 2 + 1;`)
	require.NoError(t, err)
	require.Equal(t, "9", val.Inspect())
}

func TestClosures(t *testing.T) {
	expectOutput(t, `
fun makeCounter() {
  var n = 0;
  return || { n = n + 1; return n; };
}
var c = makeCounter();
var d = makeCounter();
c();
print c();
print d();
`, "2", "1")
}

func TestBlockShadowing(t *testing.T) {
	expectOutput(t, `
var x = 1;
{
  var x = 2;
  print x == 2;
}
print x == 1;
`, "true", "true")
}

func TestGlobalsSeenByEarlierClosure(t *testing.T) {
	expectOutput(t, `
var a = "global";
{
  fun show() { print a; }
  show();
  var a = "block";
  show();
}
`, "global", "global")
}

func TestForInCapturesPerIteration(t *testing.T) {
	expectOutput(t, `
var fs = [];
for (var i in [1, 2, 3]) push(fs, || i);
print [f() for f in fs];
`, "[1, 2, 3]")
}

func TestForLoopSharesOneFrame(t *testing.T) {
	expectOutput(t, `
var total = 0;
for (var i = 0; i < 4; i++) { total += i; }
print total;
`, "6")
}

func TestClasses(t *testing.T) {
	expectOutput(t, `
class Animal {
  init(name) { this.name = name; }
  speak() { return this.name + " makes a sound"; }
}
class Dog < Animal {
  speak() { return super.speak() + " (woof)"; }
  get shout() { return this.name + "!"; }
  set nick(v) { this.name = v; }
}
var d = Dog("rex");
print d.speak();
print d.shout;
d.nick = "max";
print d.name;
print d.__class__;
print Dog.new("fido").name;
`, "rex makes a sound (woof)", "rex!", "max", "Dog", "fido")
}

func TestInterfacesAndAbstractClasses(t *testing.T) {
	expectOutput(t, `
interface Shape { area(); }
class Sq > Shape {
  init(s) { this.s = s; }
  area() { return this.s * this.s; }
}
fun total(x: Shape): number { return x.area(); }
print total(Sq(3));
`, "9")

	err := runErr(t, `interface Shape { area(); } class Bad > Shape { }`)
	require.True(t, object.IsKind(err, object.ClassError), err.Error())
	require.Contains(t, err.Error(), "does not implement method 'area'")

	err = runErr(t, `abstract class Base { } Base();`)
	require.True(t, object.IsKind(err, object.ClassError), err.Error())

	err = runErr(t, `abstract class Base { init() { print "ran"; } } Base();`)
	require.True(t, object.IsKind(err, object.ClassError), err.Error())

	err = runErr(t, `var x = 1; class C < x { }`)
	require.True(t, object.IsKind(err, object.ClassError), err.Error())
}

func TestMethodDecorators(t *testing.T) {
	expectOutput(t, `
fun twice(f) { return |x| f(f(x)); }
@twice
fun add3(x) { return x + 3; }
print add3(1);
`, "7")

	err := runErr(t, `
fun wrap(f) { return |x| x; }
class C {
  @wrap
  m(x) { return x; }
}`)
	require.True(t, object.IsKind(err, object.ClassError), err.Error())
}

func TestOperators(t *testing.T) {
	expectOutput(t, `
print 2 ** 3 ** 2;
print 7 % 4;
print "a" + 1;
print "ab" * 3;
print [1] + [2, 3];
print 2 in [1, 2];
print "ell" in "hello";
print "k" in {k: 1};
print not true;
print null ?? "fallback";
print 0 or "x";
print 1 and 2;
`, "512", "3", "a1", "ababab", "[1, 2, 3]", "true", "true", "true", "false", "fallback", "0", "2")

	err := runErr(t, `print -"x";`)
	require.True(t, object.IsKind(err, object.TypeError), err.Error())
}

func TestDivisionByZeroFollowsIEEE(t *testing.T) {
	expectOutput(t, `
print 1 / 0;
print -1 / 0;
print 0 / 0;
print 5 % 0;
`, "Infinity", "-Infinity", "NaN", "NaN")
}

func TestComparisonsRequireNumbers(t *testing.T) {
	expectOutput(t, `print 1 < 2; print 2 >= 2;`, "true", "true")

	for _, src := range []string{
		`print "a" < "b";`,
		`print "a" <= "b";`,
		`print "b" > "a";`,
		`print "b" >= 1;`,
	} {
		err := runErr(t, src)
		require.True(t, object.IsKind(err, object.TypeError), src)
	}
}

func TestOversizedSequencesAreRejected(t *testing.T) {
	err := runErr(t, `print "ab" * 1e19;`)
	require.True(t, object.IsKind(err, object.GenericError), err.Error())
	require.Contains(t, err.Error(), "too large")

	err = runErr(t, `var a = new number[1e19];`)
	require.True(t, object.IsKind(err, object.GenericError), err.Error())
	require.Contains(t, err.Error(), "too large")

	err = runErr(t, `var a = new number[1.5];`)
	require.True(t, object.IsKind(err, object.TypeError), err.Error())

	expectOutput(t, `print "" * 1e9; print length(new string[2]);`, "", "2")
}

func TestOperatorOverloads(t *testing.T) {
	expectOutput(t, `
class V {
  init(x) { this.x = x; }
  add(o) { return V(this.x + o.x); }
  eq(o) { return this.x == o.x; }
}
print (V(1) + V(2)).x;
print V(4) == V(4);
`, "3", "true")
}

func TestLookupFallsBackToBuiltins(t *testing.T) {
	expectOutput(t, `
fun f() { return typeof(length); }
print f();
print typeof(1);
print __builtins__.length([1, 2]);
`, "Function", "Number", "2")

	err := runErr(t, `print nope;`)
	require.True(t, object.IsKind(err, object.ReferenceError), err.Error())

	err = runErr(t, `nope = 1;`)
	require.True(t, object.IsKind(err, object.UndefinedBinding), err.Error())
}

func TestGeneratorNestedLoops(t *testing.T) {
	expectOutput(t, `
fun gen() {
  for (var i = 0; i < 2; i++) {
    for (var j = 0; j < 2; j++) {
      yield i * 10 + j;
    }
  }
}
var out = [];
for (var v in gen()) push(out, v);
print out;
`, "[0, 1, 10, 11]")
}

func TestGeneratorTryCatch(t *testing.T) {
	expectOutput(t, `
fun g() {
  try {
    yield 1;
    throw "boom";
  } catch (e) {
    yield e;
  }
  yield 3;
}
var it = g();
print it.next().value;
print it.next().value;
print it.next().value;
print it.next().done;
print it.done;
`, "1", "boom", "3", "true", "true")
}

func TestGeneratorResumedValueIsUndefined(t *testing.T) {
	expectOutput(t, `
fun g() {
  var x = yield 1;
  yield x;
  if (true) { yield "then"; } else { yield "else"; }
  var n = 0;
  while (n < 2) { n++; yield n; }
  return "end";
}
var it = g();
var seen = [];
var r = it.next();
while (!r.done) { push(seen, r.value); r = it.next(); }
print seen;
print r.value;
`, `[1, undefined, "then", 1, 2]`, "end")
}

func TestGeneratorResumesInsideMatchArm(t *testing.T) {
	expectOutput(t, `
fun g() {
  match 1 {
    when 1 => { yield "in arm"; print "after-in-arm"; }
  };
  var v = case 2 {
    when 2 => { yield "in case"; return "case value"; }
  };
  print v;
  yield "end";
}
var it = g();
print it.next().value;
print it.next().value;
print it.next().value;
print it.next().done;
`, "in arm", "after-in-arm", "in case", "case value", "end", "true")
}

func TestGeneratorYieldInHeaders(t *testing.T) {
	expectOutput(t, `
fun g() {
  var n = 0;
  while ((yield n) == undefined and n < 2) {
    n++;
    print "body " + n;
  }
  print "exited";
  for (var i = 0; (yield "check " + i) == undefined and i < 1; i++) {
    print "for body " + i;
  }
  if ((yield "cond") == undefined) { print "then"; }
}
for (var v in g()) { print v; }
`, "0", "body 1", "1", "body 2", "2", "exited",
		"check 0", "for body 0", "check 1", "cond", "then")
}

func TestGeneratorCompletion(t *testing.T) {
	expectOutput(t, `
fun g() { yield 1; return; }
var it = g();
it.next();
print it.next();
`, "{done: true, value: undefined}")

	expectOutput(t, `
var count = 0;
fun h() { yield 1; count++; }
var it = h();
it.next();
it.next();
it.next();
print it.next();
print count;
`, "{done: true, value: undefined}", "1")
}

func TestGeneratorErrors(t *testing.T) {
	err := runErr(t, `
fun g() { yield 1; throw "bad"; }
var it = g();
it.next();
it.next();
`)
	require.True(t, object.IsKind(err, object.ThrowError), err.Error())

	expectOutput(t, `
fun g() { yield 1; throw "bad"; }
var it = g();
it.next();
try { it.next(); } catch (e) { print e; }
print it.next().done;
`, "bad", "true")
}

func TestMatchAndCase(t *testing.T) {
	expectOutput(t, `
fun describe(v) {
  return match v {
    when [a, b] => a + b;
    when {x} => x;
    when [h, ...t] => t;
    when 5 => { return "five"; }
    else => "other";
  };
}
print describe([1, 2]);
print describe({x: 7});
print describe([1, 2, 3]);
print describe(5);
print describe("?");
var n = 2;
print case n { when 1 => "one"; when 2 => "two"; else => "many"; };
print match 9 { when 1 => 1; };
`, "3", "7", "[2, 3]", "five", "other", "two", "undefined")

	_, err := New(runtime.NewRuntime(context.Background(), util.DefaultConfiguration()), &bytes.Buffer{}).
		Run(`while (true) { match 1 { when 1 => { break; } }; }`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "break")
}

func TestArguments(t *testing.T) {
	expectOutput(t, `
fun f(a, b = a * 2, *rest, **opts) { return [a, b, rest, opts]; }
print f(1);
print f(1, 5, 6, 7, k: 1);
fun g(x, y) { return x - y; }
print g(y: 1, x: 5);
`, "[1, 2, [], {}]", "[1, 5, [6, 7], {k: 1}]", "4")

	err := runErr(t, `fun g(x, y) { return x; } g(1, 2, z: 3);`)
	require.True(t, object.IsKind(err, object.TypeError), err.Error())

	err = runErr(t, `fun g(x, y) { return x; } g(1);`)
	require.True(t, object.IsKind(err, object.ArityError), err.Error())

	err = runErr(t, `fun g(x, y) { return x; } g(1, 2, 3);`)
	require.True(t, object.IsKind(err, object.ArityError), err.Error())

	err = runErr(t, `fun g(x, y = 1) { return x; } g(1, 2, 3);`)
	require.True(t, object.IsKind(err, object.ArityError), err.Error())
}

func TestTypeChecks(t *testing.T) {
	expectOutput(t, `
type Point = {x: number, y: number};
fun norm(p: Point): number { return p.x + p.y; }
print norm({x: 1, y: 2});
var n: int = 3;
print n;
`, "3", "3")

	for _, src := range []string{
		`fun f(x: number) { return x; } f("a");`,
		`var s: string = 1;`,
		`fun f(): string { return 1; } f();`,
		`type P = {x: number}; fun f(p: P) { return p; } f({y: 1});`,
	} {
		err := runErr(t, src)
		require.True(t, object.IsKind(err, object.TypeError), "%s: %v", src, err)
	}

	err := runErr(t, `type Point = {x: number, y: number}; var p: Point = {x: 1};`)
	require.True(t, object.IsKind(err, object.TypeError), err.Error())
	require.Contains(t, err.Error(), "Point")
}

func TestObjectLiterals(t *testing.T) {
	expectOutput(t, `
var base = {n: 2};
var o = {...base, dbl: fun() { return this.n * 2; }, get sq() { return this.n * this.n; }};
print o.dbl();
print o.sq;
o.n = 5;
print o.sq;
var {n, missing = "dflt"} = o;
print n;
print missing;
`, "4", "4", "25", "5", "dflt")

	err := runErr(t, `var o = {a: 1}; print o.b;`)
	require.True(t, object.IsKind(err, object.PropertyError), err.Error())
}

func TestListsAndStrings(t *testing.T) {
	expectOutput(t, `
var xs = [1, 2, 3];
xs[0] = 10;
xs[1] += 5;
print xs[0] + xs.length;
print xs;
print [x * 2 for x in [1, 2, 3] if x > 1];
print "héllo"[1];
print new number[3];
fun inc(x) { return x + 1; }
print 1 |> inc |> inc;
print `+"`a${1 + 1}b`"+`;
`, "13", "[10, 7, 3]", "[4, 6]", "é", "[0, 0, 0]", "3", "a2b")

	err := runErr(t, `var xs = [1]; print xs[5];`)
	require.True(t, object.IsKind(err, object.GenericError), err.Error())
}

func TestTryCatch(t *testing.T) {
	expectOutput(t, `
try { throw "x"; } catch (e) { print "caught " + e; }
try { -"x"; } catch (e) { print e; }
try { undefinedThing(); } catch (e) { print "ref"; }
`, "caught x", "Operand must be a number, got 'String'.", "ref")
}

func TestErrorsCarryTrace(t *testing.T) {
	err := runErr(t, `
fun inner() { throw "deep"; }
fun outer() { inner(); }
outer();
`)
	rtErr, ok := object.AsRuntimeError(err)
	require.True(t, ok)
	require.Equal(t, 2, rtErr.Position.Line)

	var frames []string
	for _, f := range rtErr.StackTrace {
		frames = append(frames, f.Function)
	}
	require.Equal(t, []string{"inner", "outer"}, frames)
}

func TestTimers(t *testing.T) {
	interp, buf := newTestInterpreter(t, util.DefaultConfiguration())
	_, err := interp.Run(`
var hits = 0;
var id = setInterval(|tick| { hits = tick; if (tick == 3) clearInterval(id); }, 1);
setTimeout(|| { print "once"; }, 1);
var cancelled = setTimeout(|| { print "never"; }, 10000);
clearTimeout(cancelled);
`)
	require.NoError(t, err)
	require.NoError(t, interp.Runtime.Scheduler.Wait())

	hits, ok := interp.Globals().GetLocal("hits")
	require.True(t, ok)
	require.Equal(t, "3", hits.Inspect())
	require.Equal(t, []string{"once"}, lines(buf))
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib", "util.mika"), []byte(`
var greeting = "hi";
fun greet(n) { return greeting + " " + n; }
`), 0o644))

	cfg := util.DefaultConfiguration()
	cfg.RootPath = dir
	interp, buf := newTestInterpreter(t, cfg)
	_, err := interp.Run(`
import lib.util as u;
import lib.util;
print u.greet("bob");
print util.greeting;
`)
	require.NoError(t, err)
	require.Equal(t, []string{"hi bob", "hi"}, lines(buf))

	_, err = interp.Run(`import missing.mod;`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing")
}
