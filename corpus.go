package fxcorpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CorpusEntry pairs a source filename with the parameters applied to it.
type CorpusEntry struct {
	Filename string
	Params   ParameterSet
}

// corpusRecord is the on-disk form: the filename next to the 13 flat
// parameter fields.
type corpusRecord struct {
	Filename string `json:"filename"`
	ParameterSet
}

func (e CorpusEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(corpusRecord{Filename: e.Filename, ParameterSet: e.Params})
}

func (e *CorpusEntry) UnmarshalJSON(data []byte) error {
	var r corpusRecord
	if err := decodeRecord(data, &r); err != nil {
		return err
	}
	if r.Filename == "" {
		return errors.New("corpus entry without filename")
	}
	if err := r.ParameterSet.Validate(); err != nil {
		return fmt.Errorf("%s: %w", r.Filename, err)
	}
	e.Filename = r.Filename
	e.Params = r.ParameterSet
	return nil
}

// Corpus collects entries from concurrent workers.
type Corpus struct {
	mu      sync.Mutex
	entries []CorpusEntry
}

func NewCorpus() *Corpus {
	return &Corpus{}
}

// Append records one processed file.
func (c *Corpus) Append(filename string, ps ParameterSet) {
	c.mu.Lock()
	c.entries = append(c.entries, CorpusEntry{Filename: filename, Params: ps})
	c.mu.Unlock()
}

// Entries returns a snapshot in append order.
func (c *Corpus) Entries() []CorpusEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CorpusEntry(nil), c.entries...)
}

func (c *Corpus) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Save writes the corpus as a JSON array, replacing path atomically.
func (c *Corpus) Save(path string) error {
	entries := c.Entries()
	if entries == nil {
		entries = []CorpusEntry{}
	}
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := writeFileAtomic(path, append(raw, '\n')); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// LoadCorpus reads a corpus written by Save.
func LoadCorpus(path string) (*Corpus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []CorpusEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w", path, err)
	}
	return &Corpus{entries: entries}, nil
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it into place.
func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
