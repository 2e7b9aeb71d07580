package macho

import (
	"errors"
	"fmt"

	"github.com/appsworld/swiftbind/pkg/trie"
)

// ErrNoExportTrie is returned when an image carries neither
// LC_DYLD_EXPORTS_TRIE nor export data in LC_DYLD_INFO.
var ErrNoExportTrie = errors.New("macho: no export trie")

// DyldExportsTrie returns the LC_DYLD_EXPORTS_TRIE load command, or nil.
func (f *File) DyldExportsTrie() *DyldExportsTrie {
	for _, l := range f.Loads {
		if t, ok := l.(*DyldExportsTrie); ok {
			return t
		}
	}
	return nil
}

// DyldInfo returns the LC_DYLD_INFO(_ONLY) load command, or nil.
func (f *File) DyldInfo() *DyldInfo {
	for _, l := range f.Loads {
		if d, ok := l.(*DyldInfo); ok {
			return d
		}
	}
	return nil
}

func (f *File) exportTrieData() ([]byte, error) {
	var off, size uint32
	if t := f.DyldExportsTrie(); t != nil {
		off, size = t.Offset, t.Size
	} else if d := f.DyldInfo(); d != nil && d.ExportSize > 0 {
		off, size = d.ExportOff, d.ExportSize
	} else {
		return nil, ErrNoExportTrie
	}
	data, err := readRange(f.sr, int64(off), int64(size))
	if err != nil {
		return nil, fmt.Errorf("failed to read export trie at offset=%#x: %w", off, err)
	}
	return data, nil
}

// Exports returns every exported symbol recorded in the export trie.
func (f *File) Exports() ([]trie.Entry, error) {
	data, err := f.exportTrieData()
	if err != nil {
		return nil, err
	}
	exports, err := trie.Parse(data, f.GetBaseAddress())
	if err != nil {
		return nil, fmt.Errorf("failed to parse export trie: %w", err)
	}
	return exports, nil
}

// FindExport looks up a single exported name without walking the whole trie.
func (f *File) FindExport(name string) (trie.Entry, error) {
	data, err := f.exportTrieData()
	if err != nil {
		return trie.Entry{}, err
	}
	return trie.Lookup(data, name, f.GetBaseAddress())
}
