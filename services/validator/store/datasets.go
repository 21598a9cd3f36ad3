// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/openstax/response-validator/services/validator/score"
	"github.com/openstax/response-validator/services/validator/telemetry"
)

// Dataset file names inside the data directory. The interchange format is
// shared with the offline tooling that produces these files.
const (
	QuestionsFile  = "df_questions.csv"
	InnovationFile = "df_innovation.csv"
	DomainFile     = "df_domain.csv"
)

// reloadDebounce coalesces the burst of fsnotify events a file copy emits.
const reloadDebounce = 500 * time.Millisecond

// Question is one assessment item variant.
type Question struct {
	UID            string
	QID            string
	CVUID          string
	StemWords      score.Set
	OptionWords    score.Set
	ContainsNumber bool
}

// Page is one book page with its innovation vocabulary.
type Page struct {
	CVUID           string
	BookVUID        string
	PageVUID        string
	BookName        string
	InnovationWords score.Set
}

// Book is one book with its domain vocabulary.
type Book struct {
	VUID             string
	Name             string
	DomainWords      score.Set
	FeatureWeightsID string
}

// ResolvedQuestion is the vocabulary bundle for one resolved uid.
type ResolvedQuestion struct {
	// UIDUsed is the uid of the variant actually matched; it differs from
	// the request uid when the qid fallback picked another version.
	UIDUsed string

	Stem       score.Set
	Option     score.Set
	Innovation score.Set
	Domain     score.Set

	// ContainsNumber is the question's number flag, used to resolve
	// tag_numeric=auto.
	ContainsNumber bool
}

// snapshot is one immutable view of the loaded datasets.
type snapshot struct {
	questionsByUID map[string][]*Question
	questionsByQID map[string][]*Question
	pages          map[string]*Page
	books          map[string]*Book
	bookOrder      []string
	questionCount  int
}

// =============================================================================
// DatasetStore
// =============================================================================

// DatasetStore loads the question/vocabulary CSVs and serves lookups over
// an atomically-swapped snapshot.
//
// Description:
//
//	Reload parses every file into a fresh snapshot and swaps it in whole,
//	so readers never observe a half-loaded state. A parse failure leaves
//	the previous snapshot serving. Missing files load as empty tables:
//	the validator degrades to corpus-only scoring rather than refusing to
//	start.
//
// Thread Safety: Safe for concurrent use.
type DatasetStore struct {
	dir    string
	logger *slog.Logger
	cur    atomic.Pointer[snapshot]
}

// NewDatasetStore loads the datasets from dir.
func NewDatasetStore(dir string, logger *slog.Logger) (*DatasetStore, error) {
	d := &DatasetStore{dir: dir, logger: logger}
	if err := d.Reload("startup"); err != nil {
		return nil, err
	}
	return d, nil
}

// Reload re-parses all dataset files and swaps the snapshot.
func (d *DatasetStore) Reload(trigger string) error {
	snap, err := d.load()
	telemetry.RecordDatasetReload(trigger, err)
	if err != nil {
		return err
	}
	d.cur.Store(snap)
	d.logger.Info("datasets loaded",
		slog.String("trigger", trigger),
		slog.Int("books", len(snap.bookOrder)),
		slog.Int("pages", len(snap.pages)),
		slog.Int("questions", snap.questionCount),
	)
	return nil
}

// Watch reloads the datasets when any of the CSV files changes on disk.
//
// Description:
//
//	Runs until ctx is canceled. Events are debounced so a file copy in
//	progress triggers a single reload. A failed reload is logged and the
//	previous snapshot keeps serving.
func (d *DatasetStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create dataset watcher: %w", err)
	}
	if err := watcher.Add(d.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", d.dir, err)
	}

	go func() {
		defer watcher.Close()

		var timer *time.Timer
		var timerC <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isDatasetFile(ev.Name) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(reloadDebounce)
					timerC = timer.C
				} else {
					timer.Reset(reloadDebounce)
				}
			case <-timerC:
				timer = nil
				timerC = nil
				if err := d.Reload("watch"); err != nil {
					d.logger.Error("dataset reload failed", slog.Any("error", err))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				d.logger.Error("dataset watcher error", slog.Any("error", err))
			}
		}
	}()
	return nil
}

func isDatasetFile(path string) bool {
	switch filepath.Base(path) {
	case QuestionsFile, InnovationFile, DomainFile:
		return true
	}
	return false
}

// =============================================================================
// Lookups
// =============================================================================

// Resolve finds the vocabulary bundle for uid.
//
// Description:
//
//	Tries an exact uid match first. Failing that, the text before "@" is
//	treated as a qid and the highest-versioned variant wins. Word sets
//	union across every row of the matched uid; innovation and domain come
//	from the pages and books those rows point at.
//
// Outputs:
//
//	*ResolvedQuestion - The bundle, nil when uid cannot be resolved.
//	bool - Whether a question was found.
func (d *DatasetStore) Resolve(uid string) (*ResolvedQuestion, bool) {
	snap := d.cur.Load()
	if snap == nil {
		return nil, false
	}

	rows := snap.questionsByUID[uid]
	if len(rows) == 0 {
		qid := uid
		if i := strings.IndexByte(uid, '@'); i >= 0 {
			qid = uid[:i]
		}
		variants := snap.questionsByQID[qid]
		if len(variants) == 0 {
			return nil, false
		}
		best := variants[0].UID
		for _, q := range variants[1:] {
			if versionLess(best, q.UID) {
				best = q.UID
			}
		}
		rows = snap.questionsByUID[best]
	}

	res := &ResolvedQuestion{
		UIDUsed:    rows[0].UID,
		Stem:       score.Set{},
		Option:     score.Set{},
		Innovation: score.Set{},
		Domain:     score.Set{},
	}
	for _, q := range rows {
		res.ContainsNumber = res.ContainsNumber || q.ContainsNumber
		for w := range q.StemWords {
			res.Stem[w] = struct{}{}
		}
		for w := range q.OptionWords {
			res.Option[w] = struct{}{}
		}
		if page, ok := snap.pages[q.CVUID]; ok {
			for w := range page.InnovationWords {
				res.Innovation[w] = struct{}{}
			}
		}
		if book, ok := snap.books[bookVUID(q.CVUID)]; ok {
			for w := range book.DomainWords {
				res.Domain[w] = struct{}{}
			}
		}
	}
	return res, true
}

// versionLess compares the "@version" suffixes of two uids numerically,
// falling back to a string compare for non-numeric versions.
func versionLess(a, b string) bool {
	va, vb := uidVersion(a), uidVersion(b)
	fa, errA := strconv.ParseFloat(va, 64)
	fb, errB := strconv.ParseFloat(vb, 64)
	if errA == nil && errB == nil {
		return fa < fb
	}
	return va < vb
}

func uidVersion(uid string) string {
	if i := strings.IndexByte(uid, '@'); i >= 0 {
		return uid[i+1:]
	}
	return ""
}

// bookVUID extracts the book part of a "<book_vuid>:<page_vuid>" cvuid.
func bookVUID(cvuid string) string {
	if i := strings.IndexByte(cvuid, ':'); i >= 0 {
		return cvuid[:i]
	}
	return cvuid
}

// Books returns the loaded books in file order.
func (d *DatasetStore) Books() []*Book {
	snap := d.cur.Load()
	if snap == nil {
		return nil
	}
	out := make([]*Book, 0, len(snap.bookOrder))
	for _, vuid := range snap.bookOrder {
		out = append(out, snap.books[vuid])
	}
	return out
}

// Book returns one book by vuid.
func (d *DatasetStore) Book(vuid string) (*Book, bool) {
	snap := d.cur.Load()
	if snap == nil {
		return nil, false
	}
	b, ok := snap.books[vuid]
	return b, ok
}

// BookInnovation returns the union of innovation words over a book's pages.
func (d *DatasetStore) BookInnovation(vuid string) score.Set {
	snap := d.cur.Load()
	if snap == nil {
		return nil
	}
	out := score.Set{}
	for _, page := range snap.pages {
		if page.BookVUID != vuid {
			continue
		}
		for w := range page.InnovationWords {
			out[w] = struct{}{}
		}
	}
	return out
}

// BookQuestions returns every question whose page belongs to the book.
func (d *DatasetStore) BookQuestions(vuid string) []*Question {
	snap := d.cur.Load()
	if snap == nil {
		return nil
	}
	var out []*Question
	for _, rows := range snap.questionsByUID {
		for _, q := range rows {
			if bookVUID(q.CVUID) == vuid {
				out = append(out, q)
			}
		}
	}
	return out
}

// Questions returns the raw rows stored under uid (exact match only).
func (d *DatasetStore) Questions(uid string) []*Question {
	snap := d.cur.Load()
	if snap == nil {
		return nil
	}
	return snap.questionsByUID[uid]
}

// Counts returns the loaded book and question totals for /status.
func (d *DatasetStore) Counts() (books, questions int) {
	snap := d.cur.Load()
	if snap == nil {
		return 0, 0
	}
	return len(snap.bookOrder), snap.questionCount
}

// =============================================================================
// CSV Loading
// =============================================================================

func (d *DatasetStore) load() (*snapshot, error) {
	snap := &snapshot{
		questionsByUID: make(map[string][]*Question),
		questionsByQID: make(map[string][]*Question),
		pages:          make(map[string]*Page),
		books:          make(map[string]*Book),
	}

	if err := d.loadFile(QuestionsFile, snap.addQuestionRow); err != nil {
		return nil, err
	}
	if err := d.loadFile(InnovationFile, snap.addInnovationRow); err != nil {
		return nil, err
	}
	if err := d.loadFile(DomainFile, snap.addDomainRow); err != nil {
		return nil, err
	}
	return snap, nil
}

// loadFile streams one CSV through addRow. A missing file is logged and
// treated as empty.
func (d *DatasetStore) loadFile(name string, addRow func(row map[string]string) error) error {
	path := filepath.Join(d.dir, name)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		d.logger.Warn("dataset file missing, loading empty", slog.String("file", name))
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s header: %w", name, err)
	}

	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s line %d: %w", name, line, err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		if err := addRow(row); err != nil {
			return fmt.Errorf("%s line %d: %w", name, line, err)
		}
	}
}

func (s *snapshot) addQuestionRow(row map[string]string) error {
	uid := row["uid"]
	if uid == "" {
		return fmt.Errorf("question row without uid")
	}
	qid := row["qid"]
	if qid == "" {
		qid = uid
		if i := strings.IndexByte(uid, '@'); i >= 0 {
			qid = uid[:i]
		}
	}
	q := &Question{
		UID:            uid,
		QID:            qid,
		CVUID:          row["cvuid"],
		StemWords:      parseWordSet(row["stem_words"]),
		OptionWords:    parseWordSet(row["mc_words"]),
		ContainsNumber: parseBoolCell(row["contains_number"]),
	}
	if len(s.questionsByUID[uid]) == 0 {
		s.questionCount++
	}
	s.questionsByUID[uid] = append(s.questionsByUID[uid], q)

	variants := s.questionsByQID[qid]
	dup := false
	for _, v := range variants {
		if v.UID == uid {
			dup = true
			break
		}
	}
	if !dup {
		s.questionsByQID[qid] = append(variants, q)
	}
	return nil
}

func (s *snapshot) addInnovationRow(row map[string]string) error {
	cvuid := row["cvuid"]
	if cvuid == "" {
		return fmt.Errorf("innovation row without cvuid")
	}
	page := &Page{
		CVUID:           cvuid,
		BookVUID:        bookVUID(cvuid),
		BookName:        row["book_name"],
		InnovationWords: parseWordSet(row["innovation_words"]),
	}
	if i := strings.IndexByte(cvuid, ':'); i >= 0 {
		page.PageVUID = cvuid[i+1:]
	}
	s.pages[cvuid] = page
	return nil
}

func (s *snapshot) addDomainRow(row map[string]string) error {
	vuid := row["vuid"]
	if vuid == "" {
		return fmt.Errorf("domain row without vuid")
	}
	if _, exists := s.books[vuid]; !exists {
		s.bookOrder = append(s.bookOrder, vuid)
	}
	s.books[vuid] = &Book{
		VUID:             vuid,
		Name:             row["book_name"],
		DomainWords:      parseWordSet(row["domain_words"]),
		FeatureWeightsID: row["feature_weights_id"],
	}
	return nil
}

// parseWordSet decodes the dataset word-set cell format: a brace-wrapped,
// comma-separated list of quoted words, e.g. "{'cell', 'membrane'}". Empty
// cells and "set()" decode to an empty set.
func parseWordSet(cell string) score.Set {
	out := score.Set{}
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == "set()" {
		return out
	}
	cell = strings.TrimPrefix(cell, "{")
	cell = strings.TrimSuffix(cell, "}")
	for _, part := range strings.Split(cell, ",") {
		w := strings.TrimSpace(part)
		w = strings.Trim(w, `'"`)
		if w != "" {
			out[w] = struct{}{}
		}
	}
	return out
}

func parseBoolCell(cell string) bool {
	switch strings.TrimSpace(cell) {
	case "True", "true", "1", "t", "T":
		return true
	}
	return false
}
