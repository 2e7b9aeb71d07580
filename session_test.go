package swiftbind

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appsworld/swiftbind/index"
	"github.com/appsworld/swiftbind/internal/machotest"
	"github.com/appsworld/swiftbind/macho"
	"github.com/appsworld/swiftbind/match"
	"github.com/appsworld/swiftbind/pkg/diag"
	"github.com/appsworld/swiftbind/swift"
	"github.com/appsworld/swiftbind/swift/demangle"
	"github.com/appsworld/swiftbind/types"
)

func library(syms ...machotest.Symbol) machotest.Image {
	im := machotest.Image{}
	for i, s := range syms {
		if s.Value == 0 {
			s.Value = im.Addr(uint64(0x100 + 0x10*i))
		}
		im.Symbols = append(im.Symbols, s)
	}
	return im
}

func exported(name string) machotest.Symbol { return machotest.Symbol{Name: name} }

func writeLibrary(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "libmain.dylib")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

var fooDecl = &match.Declaration{Module: "main", Name: "foo", Role: match.RoleFunction}

func TestResolveTopLevelFunction(t *testing.T) {
	img := library(exported("_TF4main3fooFT_T_"))
	imgs, err := ReadContainerBytes(img.Bytes())
	require.NoError(t, err)
	require.Len(t, imgs, 1)

	s, err := NewSession()
	require.NoError(t, err)
	idx, err := s.BuildIndex(context.Background(), imgs...)
	require.NoError(t, err)

	sym, err := s.Resolve(fooDecl, idx)
	require.NoError(t, err)
	assert.Equal(t, "_TF4main3fooFT_T_", sym.Mangled)
	assert.Equal(t, swift.KindFunction, sym.Kind)
	assert.Equal(t, img.Addr(0x100), sym.Value)
	assert.Equal(t, int64(0x100), sym.Offset)
}

func TestResolveSkipsPrivateSymbols(t *testing.T) {
	img := library(machotest.Symbol{Name: "_TF4main3fooFT_T_", Type: types.N_SECT, Sect: 1})
	imgs, err := ReadContainerBytes(img.Bytes())
	require.NoError(t, err)

	s, err := NewSession()
	require.NoError(t, err)
	idx, err := s.BuildIndex(context.Background(), imgs...)
	require.NoError(t, err)
	assert.Zero(t, idx.Len())

	_, err = s.Resolve(fooDecl, idx)
	assert.ErrorIs(t, err, match.ErrNotFound)
}

func TestSymbolsFiltersAndRecords(t *testing.T) {
	img := library(
		exported("_TF4main3fooFT_T_"),
		exported("_main"),
		exported("_TFC4main3FooiX_"),
		exported("_TF4main3barFZZ"),
		machotest.Symbol{Name: "_TF4main3bazFT_T_", Type: 0x24, Sect: 1},
		exported("_TMC4main3Foo"),
	)
	imgs, err := ReadContainerBytes(img.Bytes())
	require.NoError(t, err)

	col := diag.New()
	s, err := NewSession(WithCollector(col))
	require.NoError(t, err)

	var got []string
	for sym := range s.Symbols(imgs[0]) {
		got = append(got, sym.Mangled)
	}
	assert.Equal(t, []string{"_TF4main3fooFT_T_", "_TMC4main3Foo"}, got)

	warns := col.Warnings()
	require.Len(t, warns, 1)
	assert.Equal(t, "_TF4main3barFZZ", warns[0].Subject)
	var de *demangle.Error
	assert.True(t, errors.As(warns[0].Err, &de))
	assert.Same(t, col, s.Diagnostics())

	// The sequence restarts on every range and stops early on break.
	n := 0
	for range s.Symbols(imgs[0]) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestSymbolsLinkage(t *testing.T) {
	img := library(
		exported("_TF4main3fooFT_T_"),
		machotest.Symbol{Name: "_TF4main3barFT_T_", Desc: types.N_WEAK_DEF},
		machotest.Symbol{Name: "_TF3Lib3bazFT_T_", Type: types.N_UNDF | types.N_EXT},
	)
	imgs, err := ReadContainerBytes(img.Bytes())
	require.NoError(t, err)

	s, err := NewSession()
	require.NoError(t, err)
	var got []*swift.DecodedSymbol
	for sym := range s.Symbols(imgs[0]) {
		got = append(got, sym)
	}
	require.Len(t, got, 3)

	assert.False(t, got[0].Imported)
	assert.False(t, got[0].Weak)
	assert.Equal(t, int64(0x100), got[0].Offset)

	assert.True(t, got[1].Weak)
	assert.Equal(t, int64(0x110), got[1].Offset)

	assert.True(t, got[2].Imported)
	assert.Zero(t, got[2].Offset)
}

func TestBuildIndexMergesImages(t *testing.T) {
	arm := library(exported("_TF4main3fooFT_T_"), exported("_TFC4main3FooD"))
	x86 := library(exported("_TF4main3fooFT_T_"))
	x86.CPU = types.CPUAmd64
	imgs, err := ReadContainerBytes(machotest.Fat(false, arm, x86))
	require.NoError(t, err)
	require.Len(t, imgs, 2)

	col := diag.New()
	s, err := NewSession(WithCollector(col))
	require.NoError(t, err)
	idx, err := s.BuildIndex(context.Background(), imgs...)
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Len())
	assert.Len(t, idx.Module("main").Functions["foo"], 2)

	sym, err := s.Resolve(fooDecl, idx)
	require.NoError(t, err)
	assert.Same(t, idx.Module("main").Functions["foo"][0], sym)
	require.Len(t, col.Warnings(), 1, "identical slices make the declaration ambiguous")
	assert.ErrorIs(t, col.Warnings()[0].Err, match.ErrAmbiguous)
}

func TestBuildIndexCanceled(t *testing.T) {
	imgs, err := ReadContainerBytes(library(exported("_TF4main3fooFT_T_")).Bytes())
	require.NoError(t, err)
	s, err := NewSession()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.BuildIndex(ctx, imgs...)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadCachesByPath(t *testing.T) {
	path := writeLibrary(t, library(exported("_TF4main3fooFT_T_")).Bytes())
	s, err := NewSession(WithLazySymbols(true), WithCacheSize(2))
	require.NoError(t, err)

	a, err := s.Load(context.Background(), path)
	require.NoError(t, err)
	b, err := s.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.True(t, s.Cache().Contains(path))

	_, err = s.Load(context.Background(), filepath.Join(t.TempDir(), "missing.dylib"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, 1, s.Cache().Len(), "failed loads are not cached")
}

func TestLoadRejectsStaticArchive(t *testing.T) {
	path := writeLibrary(t, []byte(types.ArchiveMagic+"padding"))
	s, err := NewSession()
	require.NoError(t, err)
	_, err = s.Load(context.Background(), path)
	assert.ErrorIs(t, err, macho.ErrStaticArchive)
}

func TestLibraryCacheSingleFlight(t *testing.T) {
	c, err := NewLibraryCache(4)
	require.NoError(t, err)

	var loads atomic.Int32
	release := make(chan struct{})
	load := func() (*index.Index, error) {
		loads.Add(1)
		<-release
		return index.New(), nil
	}

	const n = 8
	results := make([]*index.Index, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			idx, err := c.Get("libfoo.dylib", load)
			assert.NoError(t, err)
			results[i] = idx
		}()
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), loads.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}

	c.Purge()
	assert.Zero(t, c.Len())
}

func TestLibraryCacheEvicts(t *testing.T) {
	c, err := NewLibraryCache(1)
	require.NoError(t, err)
	load := func() (*index.Index, error) { return index.New(), nil }

	_, err = c.Get("a", load)
	require.NoError(t, err)
	_, err = c.Get("b", load)
	require.NoError(t, err)
	assert.False(t, c.Contains("a"))
	assert.True(t, c.Contains("b"))
}

func TestExportedSymbolsWithoutTrie(t *testing.T) {
	imgs, err := ReadContainerBytes(library(exported("_TF4main3fooFT_T_")).Bytes())
	require.NoError(t, err)
	s, err := NewSession()
	require.NoError(t, err)
	syms, err := s.ExportedSymbols(imgs[0])
	require.NoError(t, err)
	assert.Empty(t, syms)
}

func TestResolveMethodsEndToEnd(t *testing.T) {
	names := []string{
		"_TFC4main3Foo3barfS0_FT_T_",
		"_TFC4main3FooCfMS0_FT1xSi_S0_",
		"_TFC4main3Foog5countSi",
		"_TFC4main3Foos5countSi",
		"_TF4main8identityurFxx",
	}
	var syms []machotest.Symbol
	for _, n := range names {
		syms = append(syms, exported(n))
	}
	imgs, err := ReadContainerBytes(library(syms...).Bytes(), WithLazySymbols(true))
	require.NoError(t, err)

	s, err := NewSession()
	require.NoError(t, err)
	idx, err := s.BuildIndex(context.Background(), imgs...)
	require.NoError(t, err)

	foo := []match.OwnerEntry{{Kind: swift.Class, Name: "Foo"}}
	decls := []*match.Declaration{
		{Module: "main", Owner: foo, Name: "bar", Role: match.RoleFunction},
		{Module: "main", Owner: foo, Role: match.RoleConstructor, Params: []match.Parameter{{PublicName: "x", Type: match.Named("Int")}}},
		{Module: "main", Owner: foo, Name: "count", Role: match.RoleGetter, Return: match.Named("Int")},
		{Module: "main", Owner: foo, Name: "count", Role: match.RoleSetter, Params: []match.Parameter{{PublicName: "newValue", Type: match.Named("Int")}}},
		{Module: "main", Name: "identity", Role: match.RoleFunction, Generics: []match.GenericParam{{Name: "T"}},
			Params: []match.Parameter{{PublicName: "_", Type: match.Named("T")}}, Return: match.Named("T")},
	}
	var got []string
	for _, d := range decls {
		sym, err := s.Resolve(d, idx)
		require.NoError(t, err, d.String())
		got = append(got, sym.Mangled)
	}
	assert.Equal(t, names, got)
	assert.True(t, slices.IsSorted(idx.Modules()))
	assert.Zero(t, s.Diagnostics().Len())
}

func TestExportedSymbols(t *testing.T) {
	exportTrie := []byte{
		0x00, 0x02,
		'_', 'T', 'F', '4', 'm', 'a', 'i', 'n', '3', 'f', 'o', 'o', 'F', 'T', '_', 'T', '_', 0x00, 25,
		'_', 'b', 0x00, 29,
		0x02, 0x00, 0x10, 0x00,
		0x05, 0x08, 0x01, '_', 'c', 0x00, 0x00,
	}
	linkedit := func(off, size int) []byte {
		p := make([]byte, 8)
		binary.LittleEndian.PutUint32(p[0:], uint32(off))
		binary.LittleEndian.PutUint32(p[4:], uint32(size))
		return p
	}
	im := machotest.Image{Commands: []machotest.Command{{Cmd: types.LC_DYLD_EXPORTS_TRIE, Payload: linkedit(0, 0)}}}
	off := len(im.Bytes())
	im.Commands[0].Payload = linkedit(off, len(exportTrie))
	data := append(im.Bytes(), exportTrie...)

	imgs, err := ReadContainerBytes(data)
	require.NoError(t, err)
	s, err := NewSession()
	require.NoError(t, err)
	syms, err := s.ExportedSymbols(imgs[0])
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "_TF4main3fooFT_T_", syms[0].Mangled)
	assert.Equal(t, im.Addr(0x10), syms[0].Value)
}
