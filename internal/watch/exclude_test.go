package watch_test

import (
	"testing"

	"folderwatch/internal/watch"
)

func TestExcludeMatcher(t *testing.T) {
	defaults := watch.NewExcludeMatcher(watch.DefaultExcludePatterns)

	tests := []struct {
		name    string
		matcher *watch.ExcludeMatcher
		folder  string
		entity  string
		want    bool
	}{
		{name: "archive folder", matcher: defaults, folder: "Processed Wage Statements", entity: "Acme", want: true},
		{name: "samples folder", matcher: defaults, folder: "Acme Wage Statements Samples", entity: "Acme", want: true},
		{name: "samples folder of another entity", matcher: defaults, folder: "Beta Wage Statements Samples", entity: "Acme", want: false},
		{name: "content folder", matcher: defaults, folder: "2024", entity: "Acme", want: false},
		{name: "entity name with glob characters", matcher: defaults, folder: "A*[1] Wage Statements Samples", entity: "A*[1]", want: true},
		{name: "escaped entity does not act as wildcard", matcher: defaults, folder: "Anything Wage Statements Samples", entity: "*", want: false},
		{name: "user glob", matcher: watch.NewExcludeMatcher([]string{"Old *"}), folder: "Old 2019", entity: "Acme", want: true},
		{name: "comments and blanks skipped", matcher: watch.NewExcludeMatcher([]string{"# Processed Wage Statements", "   "}), folder: "# Processed Wage Statements", entity: "Acme", want: false},
		{name: "no patterns", matcher: watch.NewExcludeMatcher(nil), folder: "Processed Wage Statements", entity: "Acme", want: false},
		{name: "bad pattern ignored", matcher: watch.NewExcludeMatcher([]string{"[", "Archive"}), folder: "Archive", entity: "Acme", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.matcher.Match(tt.folder, tt.entity); got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.folder, tt.entity, got, tt.want)
			}
		})
	}
}
