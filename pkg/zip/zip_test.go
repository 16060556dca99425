package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchiveAssets(t *testing.T) {
	raw, err := ArchiveAssets([]Asset{
		{Filename: "audio/prop-1/tmpl-1_a.wav", Data: []byte("one")},
		{Filename: "tmpl-1_a.wav", Data: []byte("two")},
		{Filename: "../../etc/passwd", Data: []byte("three")},
	})
	if err != nil {
		t.Fatalf("ArchiveAssets: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	want := map[string]string{
		"tmpl-1_a.wav":   "one",
		"tmpl-1_a-2.wav": "two",
		"passwd":         "three",
	}
	if len(zr.File) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(zr.File))
	}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		if want[f.Name] != string(data) {
			t.Fatalf("entry %s = %q", f.Name, data)
		}
	}
}

func TestArchiveAssetsEmpty(t *testing.T) {
	raw, err := ArchiveAssets(nil)
	if err != nil {
		t.Fatalf("ArchiveAssets: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil || len(zr.File) != 0 {
		t.Fatalf("expected empty archive, err=%v", err)
	}
}
