// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	dgbadger "github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/AleutianRank/services/ranker/datatypes"
	"github.com/AleutianAI/AleutianRank/services/ranker/storage/badger"
)

// Key layout. Sequence numbers are zero-padded so lexicographic key
// order equals numeric order and prefix scans come back sorted.
//
//	list/<id>/task/<seq10>  → JSON TaskRecord
//	list/<id>/cmp/<seq10>   → JSON cmpValue
const (
	keyPrefix   = "list/"
	taskSegment = "/task/"
	cmpSegment  = "/cmp/"
)

// timeLayout fixes the stored timestamp encoding.
const timeLayout = time.RFC3339Nano

// cmpValue is the stored form of a comparison.
type cmpValue struct {
	TaskA     string `json:"task_a"`
	TaskB     string `json:"task_b"`
	Winner    string `json:"winner"`
	Timestamp string `json:"timestamp"`
}

func (c cmpValue) toComparison() (datatypes.Comparison, error) {
	ts, err := time.Parse(timeLayout, c.Timestamp)
	if err != nil {
		return datatypes.Comparison{}, fmt.Errorf("bad timestamp %q: %w", c.Timestamp, err)
	}
	return datatypes.Comparison{TaskA: c.TaskA, TaskB: c.TaskB, Winner: c.Winner, Timestamp: ts}, nil
}

// BadgerStore implements Store on an embedded BadgerDB.
//
// Thread Safety: safe for concurrent use; BadgerDB transactions
// provide isolation, and each mutation here is a single transaction.
type BadgerStore struct {
	db     *dgbadger.DB
	logger *slog.Logger
}

// OpenBadger opens (or creates) the journal database at the configured
// location.
func OpenBadger(cfg badger.Config) (*BadgerStore, error) {
	db, err := badger.Open(cfg)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerStore{db: db, logger: logger}, nil
}

// Close flushes and closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func taskKey(listID string, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s%s%010d", keyPrefix, listID, taskSegment, seq))
}

func cmpKey(listID string, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s%s%010d", keyPrefix, listID, cmpSegment, seq))
}

// PutTask writes one task record.
func (s *BadgerStore) PutTask(ctx context.Context, listID string, task TaskRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	val, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	return s.db.Update(func(txn *dgbadger.Txn) error {
		return txn.Set(taskKey(listID, task.Seq), val)
	})
}

// AppendComparison writes the comparison and any tasks it introduces
// in one transaction.
func (s *BadgerStore) AppendComparison(ctx context.Context, listID string, cmp ComparisonRecord, newTasks []TaskRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cv := cmpValue{
		TaskA:     cmp.Comparison.TaskA,
		TaskB:     cmp.Comparison.TaskB,
		Winner:    cmp.Comparison.Winner,
		Timestamp: cmp.Comparison.Timestamp.Format(timeLayout),
	}
	cmpVal, err := json.Marshal(cv)
	if err != nil {
		return fmt.Errorf("encode comparison: %w", err)
	}
	return s.db.Update(func(txn *dgbadger.Txn) error {
		for _, t := range newTasks {
			val, err := json.Marshal(t)
			if err != nil {
				return fmt.Errorf("encode task: %w", err)
			}
			if err := txn.Set(taskKey(listID, t.Seq), val); err != nil {
				return err
			}
		}
		return txn.Set(cmpKey(listID, cmp.Seq), cmpVal)
	})
}

// DeleteTask removes the task record matching content and every
// comparison referencing it, in one transaction.
func (s *BadgerStore) DeleteTask(ctx context.Context, listID, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	listPrefix := []byte(keyPrefix + listID + "/")
	return s.db.Update(func(txn *dgbadger.Txn) error {
		doomed, err := func() (doomed [][]byte, err error) {
			it := txn.NewIterator(dgbadger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek(listPrefix); it.ValidForPrefix(listPrefix); it.Next() {
				item := it.Item()
				key := item.KeyCopy(nil)
				err = item.Value(func(val []byte) error {
					switch {
					case bytes.Contains(key, []byte(taskSegment)):
						var t TaskRecord
						if err := json.Unmarshal(val, &t); err != nil {
							return fmt.Errorf("decode task %s: %w", key, err)
						}
						if t.Content == content {
							doomed = append(doomed, key)
						}
					case bytes.Contains(key, []byte(cmpSegment)):
						var c cmpValue
						if err := json.Unmarshal(val, &c); err != nil {
							return fmt.Errorf("decode comparison %s: %w", key, err)
						}
						if c.TaskA == content || c.TaskB == content {
							doomed = append(doomed, key)
						}
					}
					return nil
				})
				if err != nil {
					return nil, err
				}
			}
			return doomed, nil
		}()
		if err != nil {
			return err
		}

		for _, key := range doomed {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadAll scans the whole journal and reconstructs every list.
func (s *BadgerStore) LoadAll(ctx context.Context) ([]ListSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	byID := make(map[string]*ListSnapshot)

	err := s.db.View(func(txn *dgbadger.Txn) error {
		prefix := []byte(keyPrefix)
		it := txn.NewIterator(dgbadger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := string(item.Key())
			listID, segment, seq, err := parseKey(key)
			if err != nil {
				s.logger.Warn("skipping malformed journal key", "key", key, "error", err)
				continue
			}
			snap := byID[listID]
			if snap == nil {
				snap = &ListSnapshot{ID: listID}
				byID[listID] = snap
			}
			err = item.Value(func(val []byte) error {
				switch segment {
				case taskSegment:
					var t TaskRecord
					if err := json.Unmarshal(val, &t); err != nil {
						return fmt.Errorf("decode task %s: %w", key, err)
					}
					t.Seq = seq
					snap.Tasks = append(snap.Tasks, t)
				case cmpSegment:
					var c cmpValue
					if err := json.Unmarshal(val, &c); err != nil {
						return fmt.Errorf("decode comparison %s: %w", key, err)
					}
					cmp, err := c.toComparison()
					if err != nil {
						return fmt.Errorf("decode comparison %s: %w", key, err)
					}
					snap.Comparisons = append(snap.Comparisons, ComparisonRecord{Seq: seq, Comparison: cmp})
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	snaps := make([]ListSnapshot, 0, len(byID))
	for _, snap := range byID {
		// Keys come back in lexicographic order, which the zero-padded
		// seq makes numeric order; sort anyway so the contract does not
		// depend on iterator details.
		sort.Slice(snap.Tasks, func(i, j int) bool { return snap.Tasks[i].Seq < snap.Tasks[j].Seq })
		sort.Slice(snap.Comparisons, func(i, j int) bool { return snap.Comparisons[i].Seq < snap.Comparisons[j].Seq })
		snaps = append(snaps, *snap)
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].ID < snaps[j].ID })
	return snaps, nil
}

// parseKey splits "list/<id>/task/<seq10>" into its parts. The list id
// itself may contain '/'; the segment match anchors on the last
// occurrence so opaque ids survive.
func parseKey(key string) (listID, segment string, seq uint64, err error) {
	rest, ok := strings.CutPrefix(key, keyPrefix)
	if !ok {
		return "", "", 0, fmt.Errorf("missing prefix")
	}
	idx := -1
	for _, seg := range []string{taskSegment, cmpSegment} {
		if i := strings.LastIndex(rest, seg); i > idx {
			idx = i
			segment = seg
		}
	}
	if idx < 0 {
		return "", "", 0, fmt.Errorf("unknown segment")
	}
	listID = rest[:idx]
	seq, err = strconv.ParseUint(rest[idx+len(segment):], 10, 64)
	if err != nil {
		return "", "", 0, fmt.Errorf("bad sequence: %w", err)
	}
	return listID, segment, seq, nil
}
