// Package swiftbind resolves the entry points of a compiled Swift library
// for the declarations of its module interface.
//
// A Session reads Mach-O images (thin or fat), decodes the mangled names in
// their symbol tables, indexes the results and matches declarations against
// that index:
//
//	s, _ := swiftbind.NewSession(swiftbind.WithLogger(log))
//	idx, err := s.Load(ctx, "libFoo.dylib")
//	sym, err := s.Resolve(decl, idx)
package swiftbind

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/appsworld/swiftbind/index"
	"github.com/appsworld/swiftbind/macho"
	"github.com/appsworld/swiftbind/match"
	"github.com/appsworld/swiftbind/pkg/diag"
	"github.com/appsworld/swiftbind/swift"
	"github.com/appsworld/swiftbind/swift/demangle"
)

// ReadContainer reads every image in the Mach-O or fat file at path. The
// whole file is read into memory; the images hold no open file.
func ReadContainer(path string, opts ...Option) ([]*macho.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	imgs, err := ReadContainerBytes(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return imgs, nil
}

// ReadContainerBytes reads every image in an in-memory Mach-O or fat file.
func ReadContainerBytes(data []byte, opts ...Option) ([]*macho.File, error) {
	cfg := newConfig(opts)
	return macho.Read(bytes.NewReader(data), macho.FileConfig{
		LazySymbols: cfg.lazy,
		Logger:      cfg.log,
	})
}

// A Session holds the logger, diagnostics and library cache shared by
// every load and resolve. It is safe for concurrent use.
type Session struct {
	cfg   config
	log   *slog.Logger
	diag  *diag.Collector
	cache *LibraryCache
}

// NewSession returns a Session configured by opts.
func NewSession(opts ...Option) (*Session, error) {
	cfg := newConfig(opts)
	cache, err := NewLibraryCache(cfg.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create library cache: %w", err)
	}
	return &Session{cfg: cfg, log: cfg.log, diag: cfg.diag, cache: cache}, nil
}

// Diagnostics is the collector problems are recorded in.
func (s *Session) Diagnostics() *diag.Collector { return s.diag }

// Cache is the library cache Load fills.
func (s *Session) Cache() *LibraryCache { return s.cache }

// Read reads the images at path with the session's options.
func (s *Session) Read(path string) ([]*macho.File, error) {
	return ReadContainer(path, WithLogger(s.log), WithLazySymbols(s.cfg.lazy))
}

// Symbols yields the decoded form of every public, non-debug symbol table
// entry of img. Names that are not Swift symbols are skipped; names that
// fail to decode are recorded as warnings. Each call re-walks the table.
func (s *Session) Symbols(img *macho.File) iter.Seq[*swift.DecodedSymbol] {
	return func(yield func(*swift.DecodedSymbol) bool) {
		syms, err := img.Symbols()
		if err != nil {
			s.log.Error("failed to read symbol table", "err", err)
			s.diag.Error("symtab", err)
			return
		}
		for _, sym := range syms {
			if !sym.IsCandidate() || !demangle.IsMangled(sym.Name) {
				continue
			}
			d, err := demangle.Decode(sym.Name)
			if err != nil {
				if !errors.Is(err, demangle.ErrNotASymbol) {
					s.log.Debug("failed to decode symbol", "symbol", sym.Name, "err", err)
					s.diag.Warn(sym.Name, err)
				}
				continue
			}
			d.Value = sym.Value
			d.Imported, d.Weak = sym.IsImport(), sym.IsWeak()
			if sym.IsDefined() {
				if off, err := img.GetOffset(sym.Value); err == nil {
					d.Offset = img.Offset + int64(off)
				}
			}
			if !yield(d) {
				return
			}
		}
	}
}

// ExportedSymbols decodes the Swift names in img's export trie. Images
// without a trie yield nothing.
func (s *Session) ExportedSymbols(img *macho.File) ([]*swift.DecodedSymbol, error) {
	exports, err := img.Exports()
	if err != nil {
		if errors.Is(err, macho.ErrNoExportTrie) {
			return nil, nil
		}
		return nil, err
	}
	var out []*swift.DecodedSymbol
	for _, e := range exports {
		if e.Flags.ReExport() || !demangle.IsMangled(e.Name) {
			continue
		}
		d, err := demangle.Decode(e.Name)
		if err != nil {
			if !errors.Is(err, demangle.ErrNotASymbol) {
				s.diag.Warn(e.Name, err)
			}
			continue
		}
		d.Value = e.Address
		out = append(out, d)
	}
	return out, nil
}

// BuildIndex decodes imgs in parallel and merges their symbols into one
// index, in image order.
func (s *Session) BuildIndex(ctx context.Context, imgs ...*macho.File) (*index.Index, error) {
	parts := make([]*index.Index, len(imgs))
	g, ctx := errgroup.WithContext(ctx)
	for i, img := range imgs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			idx := index.New()
			for sym := range s.Symbols(img) {
				idx.Add(sym)
			}
			parts[i] = idx
			s.log.Debug("indexed image", "cpu", img.CPU, "symbols", idx.Len())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := index.New()
	for _, p := range parts {
		out.Merge(p)
	}
	return out, nil
}

// Load reads and indexes the library at path. Results are cached by path,
// and concurrent loads of one path read it once.
func (s *Session) Load(ctx context.Context, path string) (*index.Index, error) {
	return s.cache.Get(path, func() (*index.Index, error) {
		imgs, err := s.Read(path)
		if err != nil {
			return nil, err
		}
		idx, err := s.BuildIndex(ctx, imgs...)
		if err != nil {
			return nil, fmt.Errorf("failed to index %s: %w", path, err)
		}
		s.log.Info("loaded library", "path", path, "images", len(imgs), "symbols", idx.Len())
		return idx, nil
	})
}

// Resolve returns the symbol implementing decl. A declaration that matches
// several symbols resolves to the first; the ambiguity is logged and
// recorded as a warning.
func (s *Session) Resolve(decl *match.Declaration, idx *index.Index) (*swift.DecodedSymbol, error) {
	res, err := match.Resolve(decl, idx)
	if err != nil {
		s.log.Debug("unresolved declaration", "decl", decl.String(), "err", err)
		return nil, err
	}
	if res.Ambiguous() {
		alts := make([]string, len(res.Alternatives))
		for i, a := range res.Alternatives {
			alts[i] = a.Mangled
		}
		s.log.Warn("ambiguous declaration", "decl", decl.String(), "symbol", res.Symbol.Mangled, "alternatives", alts)
		s.diag.Warn(decl.String(), fmt.Errorf("%w: %s also matches %v", match.ErrAmbiguous, res.Symbol.Mangled, alts))
	}
	return res.Symbol, nil
}
