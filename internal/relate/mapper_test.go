package relate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/docs-extractor/constants"
)

func TestMap(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		images     []string
		tables     []string
		wantImages []Link
		wantTables []Link
	}{
		{
			name:       "figure and table mentioned",
			text:       "This document contains Figure 1 and Table 2.",
			images:     []string{"image1.png"},
			tables:     []string{"table1.csv"},
			wantImages: []Link{{"image1.png", NoteMentioned}},
			wantTables: []Link{{"table1.csv", NoteMentioned}},
		},
		{
			name:       "no keywords",
			text:       "Revenue grew in the second half of the year.",
			images:     []string{"image1.png"},
			tables:     []string{"table1.csv"},
			wantImages: []Link{},
			wantTables: []Link{},
		},
		{
			name:       "document-wide check links every artifact",
			text:       "See the IMAGE below.",
			images:     []string{"out/images/image_page1_1.png", "out/images/image_page3_1.jpg"},
			tables:     []string{"table_SOFP_1.csv"},
			wantImages: []Link{{"image_page1_1.png", NoteMentioned}, {"image_page3_1.jpg", NoteMentioned}},
			wantTables: []Link{},
		},
		{
			name:       "substring match inside a word",
			text:       "Timetable attached.",
			tables:     []string{"table_SOCF_1.csv", "a/table_SOCF_1.csv"},
			wantImages: []Link{},
			wantTables: []Link{{"table_SOCF_1.csv", NoteMentioned}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Map(tt.text, tt.images, tt.tables)
			if diff := cmp.Diff(tt.wantImages, got.TextToImages); diff != "" {
				t.Errorf("text_to_images mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantTables, got.TextToTables); diff != "" {
				t.Errorf("text_to_tables mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMapAndSaveWritesBothNamespaces(t *testing.T) {
	out := t.TempDir()
	m := NewMapper(nil)
	if _, err := m.MapAndSave(context.Background(), "Figure 1 only", []string{"image1.png"}, []string{"table1.csv"}, out); err != nil {
		t.Fatalf("MapAndSave: %v", err)
	}

	read := func(ns string) Summary {
		t.Helper()
		b, err := os.ReadFile(filepath.Join(out, constants.RelationshipsDir, ns, ns+".json"))
		if err != nil {
			t.Fatal(err)
		}
		var s Summary
		if err := json.Unmarshal(b, &s); err != nil {
			t.Fatal(err)
		}
		return s
	}

	want := Summary{Namespace: constants.TextToImages, Relationships: []Link{{"image1.png", NoteMentioned}}}
	if diff := cmp.Diff(want, read(constants.TextToImages)); diff != "" {
		t.Fatalf("images summary mismatch (-want +got):\n%s", diff)
	}
	want = Summary{Namespace: constants.TextToTables, Relationships: []Link{}}
	if diff := cmp.Diff(want, read(constants.TextToTables)); diff != "" {
		t.Fatalf("tables summary mismatch (-want +got):\n%s", diff)
	}
}
