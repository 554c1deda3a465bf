package index

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/standardbeagle/lciindex/internal/blockfile"
)

// TestFileTableResumesAppendAcrossRestart is the regression test for the
// append-cursor design: a restart must resume writing exactly where the
// FileList stream left off, not at the start of a fresh block, even when
// the prior session's last block was only partially filled.
func TestFileTableResumesAppendAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "idx")

	bf, err := blockfile.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ft := NewFileTable()
	for i := 0; i < 5; i++ {
		if _, err := ft.Add(fmt.Sprintf("first-batch-%d.txt", i)); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := ft.Store(bf); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := bf.Store(); err != nil {
		t.Fatalf("bf.Store: %v", err)
	}
	if err := bf.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	bf2, err := blockfile.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	reloaded, err := LoadFileTable(bf2)
	if err != nil {
		t.Fatalf("LoadFileTable: %v", err)
	}
	for i := 0; i < 5; i++ {
		if !reloaded.Have(fmt.Sprintf("first-batch-%d.txt", i)) {
			t.Fatalf("expected first-batch-%d.txt to survive reload", i)
		}
	}

	for i := 0; i < 5; i++ {
		if _, err := reloaded.Add(fmt.Sprintf("second-batch-%d.txt", i)); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := reloaded.Store(bf2); err != nil {
		t.Fatalf("Store second batch: %v", err)
	}
	if err := bf2.Store(); err != nil {
		t.Fatalf("bf2.Store: %v", err)
	}
	if err := bf2.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	bf3, err := blockfile.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer bf3.Close()
	final, err := LoadFileTable(bf3)
	if err != nil {
		t.Fatalf("LoadFileTable final: %v", err)
	}
	for i := 0; i < 5; i++ {
		if !final.Have(fmt.Sprintf("first-batch-%d.txt", i)) {
			t.Errorf("lost first-batch-%d.txt across two restarts", i)
		}
		if !final.Have(fmt.Sprintf("second-batch-%d.txt", i)) {
			t.Errorf("lost second-batch-%d.txt across restart", i)
		}
	}
}

func TestFileTableRejectsOverlongName(t *testing.T) {
	ft := NewFileTable()
	name := strings.Repeat("x", maxNameLen+1)
	if _, err := ft.Add(name); err == nil {
		t.Error("expected an error adding a name longer than maxNameLen")
	}
}

func TestFileTableAcceptsNameAtMaxLen(t *testing.T) {
	ft := NewFileTable()
	name := strings.Repeat("x", maxNameLen)
	if _, err := ft.Add(name); err != nil {
		t.Errorf("expected a name of exactly maxNameLen bytes to be accepted: %v", err)
	}
}

func TestFileTableRemoveIsLogicalOnly(t *testing.T) {
	ft := NewFileTable()
	id, err := ft.Add("a.txt")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	ft.Remove("a.txt")
	if ft.Have("a.txt") {
		t.Error("expected a.txt to be gone after Remove")
	}
	if _, ok := ft.Get(id); ok {
		t.Error("expected Get to fail for a removed id")
	}
}
