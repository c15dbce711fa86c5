package notify

import (
	"testing"

	"folderwatch/internal/watch"
)

func TestFormatBatch(t *testing.T) {
	tests := []struct {
		name   string
		files  []watch.CandidateFile
		suffix string
		want   string
	}{
		{
			name: "single file",
			files: []watch.CandidateFile{
				{ID: "f1", Name: "a.pdf", OwnerName: "Acme", Link: "https://drive.example.com/Acme/Acme%20Wage%20Statements/a.pdf"},
			},
			suffix: "Wage Statements",
			want:   "File Uploaded to <https://drive.example.com/Acme/Acme%20Wage%20Statements|Acme Wage Statements>",
		},
		{
			name: "grouped by owner in first-seen order",
			files: []watch.CandidateFile{
				{ID: "1", OwnerName: "Zeta", Link: "https://x/zeta/1.pdf"},
				{ID: "2", OwnerName: "Acme", Link: "https://x/acme/2.pdf"},
				{ID: "3", OwnerName: "Zeta", Link: "https://x/zeta-other/3.pdf"},
			},
			suffix: "Wage Statements",
			want: "File Uploaded to <https://x/zeta|Zeta Wage Statements>\n" +
				"File Uploaded to <https://x/acme|Acme Wage Statements>",
		},
		{
			name:   "missing link",
			files:  []watch.CandidateFile{{ID: "1", OwnerName: "Acme"}},
			suffix: "Wage Statements",
			want:   "File Uploaded to Acme Wage Statements",
		},
		{
			name:   "escapes control characters",
			files:  []watch.CandidateFile{{ID: "1", OwnerName: "A&B <Ltd>", Link: "https://x/ab/1.pdf"}},
			suffix: "Wage Statements",
			want:   "File Uploaded to <https://x/ab|A&amp;B &lt;Ltd&gt; Wage Statements>",
		},
		{
			name:   "empty suffix",
			files:  []watch.CandidateFile{{ID: "1", OwnerName: "Acme"}},
			suffix: "",
			want:   "File Uploaded to Acme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatBatch(tt.files, tt.suffix); got != tt.want {
				t.Errorf("FormatBatch() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestFormatError(t *testing.T) {
	tests := []struct {
		message string
		suffix  string
		want    string
	}{
		{message: "root folder not found", suffix: "Wage Statements", want: "❌ Error monitoring wage statements: root folder not found"},
		{message: "a < b", suffix: "", want: "❌ Error monitoring folders: a &lt; b"},
	}
	for _, tt := range tests {
		if got := FormatError(tt.message, tt.suffix); got != tt.want {
			t.Errorf("FormatError(%q, %q) = %q, want %q", tt.message, tt.suffix, got, tt.want)
		}
	}
}

func TestParentLink(t *testing.T) {
	tests := map[string]string{
		"https://x/a/b.pdf": "https://x/a",
		"no-slash":          "",
		"":                  "",
	}
	for in, want := range tests {
		if got := parentLink(in); got != want {
			t.Errorf("parentLink(%q) = %q, want %q", in, got, want)
		}
	}
}
