package v1

import "testing"

func TestBuildExportContentDisposition(t *testing.T) {
	got := buildExportContentDisposition("abc12345-6789-0000-1111-222222222222", "xlsx")
	want := "attachment; filename=\"scan-result-abc12345.xlsx\"; filename*=UTF-8''%E6%A0%B8%E5%AF%B9%E7%BB%93%E6%9E%9C-abc12345.xlsx"
	if got != want {
		t.Fatalf("content-disposition mismatch:\n got: %s\nwant: %s", got, want)
	}
}

func TestBuildExportContentDispositionCSV(t *testing.T) {
	got := buildExportContentDisposition("short", "csv")
	want := "attachment; filename=\"scan-result-short.csv\"; filename*=UTF-8''%E6%A0%B8%E5%AF%B9%E7%BB%93%E6%9E%9C-short.csv"
	if got != want {
		t.Fatalf("content-disposition mismatch:\n got: %s\nwant: %s", got, want)
	}
}
