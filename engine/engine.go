// Package engine classifies ClickHouse storage engines from DDL text.
//
// Classification is purely textual: the file contents are scanned for a fixed,
// ordered vocabulary of engine markers and the first marker found wins. Several
// engine names are substrings of others (MergeTree, AggregatingMergeTree,
// ReplicatedAggregatingMergeTree), so the order of the scan decides the result.
// Comments, string literals and column types such as Nullable(...) can fool the
// scan; callers that need precise answers must not rely on it.
package engine

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Kind is the storage engine family of a table.
type Kind uint8

const (
	None Kind = iota
	Distributed
	Remote
	RemoteSecure
	ReplicatedMergeTree
	ReplicatedAggregatingMergeTree
	ReplicatedReplacingMergeTree
	MergeTree
	AggregatingMergeTree
	ReplacingMergeTree
	MaterializedView
	Null
)

// ErrUnknownEngine is returned when no engine marker occurs in the text.
var ErrUnknownEngine = errors.New("none of the table engines match")

var names = [...]string{
	None:                           "None",
	Distributed:                    "Distributed",
	Remote:                         "Remote",
	RemoteSecure:                   "RemoteSecure",
	ReplicatedMergeTree:            "ReplicatedMergeTree",
	ReplicatedAggregatingMergeTree: "ReplicatedAggregatingMergeTree",
	ReplicatedReplacingMergeTree:   "ReplicatedReplacingMergeTree",
	MergeTree:                      "MergeTree",
	AggregatingMergeTree:           "AggregatingMergeTree",
	ReplacingMergeTree:             "ReplacingMergeTree",
	MaterializedView:               "MaterializedView",
	Null:                           "Null",
}

// marker is the substring searched for in DDL text.
type marker struct {
	kind Kind
	text string
}

// priority is the scan order. remoteSecure must precede remote, and every
// Replicated* and *MergeTree variant must precede plain MergeTree.
var priority = []marker{
	{Distributed, "Distributed"},
	{RemoteSecure, "remoteSecure"},
	{Remote, "remote"},
	{ReplicatedMergeTree, "ReplicatedMergeTree"},
	{ReplicatedAggregatingMergeTree, "ReplicatedAggregatingMergeTree"},
	{ReplicatedReplacingMergeTree, "ReplicatedReplacingMergeTree"},
	{ReplacingMergeTree, "ReplacingMergeTree"},
	{AggregatingMergeTree, "AggregatingMergeTree"},
	{MergeTree, "MergeTree"},
	{MaterializedView, "CREATE MATERIALIZED VIEW"},
	{Null, "Null"},
}

// Classify returns the first engine, in priority order, whose marker occurs in text.
func Classify(text string) (Kind, error) {
	for _, m := range priority {
		if strings.Contains(text, m.text) {
			return m.kind, nil
		}
	}
	return None, ErrUnknownEngine
}

// ClassifyFile reads the file at path and classifies its contents.
func ClassifyFile(path string) (Kind, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return None, fmt.Errorf("engine: read %q: %w", path, err)
	}
	k, err := Classify(string(data))
	if err != nil {
		return None, fmt.Errorf("engine: %s: %w", path, err)
	}
	return k, nil
}

// Kinds returns every engine kind in scan priority order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(priority))
	for _, m := range priority {
		out = append(out, m.kind)
	}
	return out
}

// Marker returns the substring that identifies k in DDL text, or "" for None.
func (k Kind) Marker() string {
	for _, m := range priority {
		if m.kind == k {
			return m.text
		}
	}
	return ""
}

// Replicated reports whether k keeps its data in a replicated (ZooKeeper/Keeper backed) path.
func (k Kind) Replicated() bool {
	switch k {
	case ReplicatedMergeTree, ReplicatedAggregatingMergeTree, ReplicatedReplacingMergeTree:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	if int(k) < len(names) {
		return names[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind returns the kind whose name equals s, ignoring case.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	for i, n := range names {
		if strings.EqualFold(n, s) {
			return Kind(i), nil
		}
	}
	return None, fmt.Errorf("engine: unknown kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
