package notify

import (
	"fmt"
	"strings"

	"folderwatch/internal/watch"
)

const testMessage = "✅ Folder monitoring is set up and running!"

var slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// FormatBatch renders one line per owner, in the order owners first appear:
//
//	File Uploaded to <folder-url|Owner Wage Statements>
//
// The folder URL is the first file's link with its last path segment removed.
func FormatBatch(files []watch.CandidateFile, targetSuffix string) string {
	var owners []string
	folderURLs := make(map[string]string)
	for _, f := range files {
		if _, ok := folderURLs[f.OwnerName]; ok {
			continue
		}
		folderURLs[f.OwnerName] = parentLink(f.Link)
		owners = append(owners, f.OwnerName)
	}

	lines := make([]string, 0, len(owners))
	for _, owner := range owners {
		label := slackEscaper.Replace(strings.TrimSpace(owner + " " + targetSuffix))
		if u := folderURLs[owner]; u != "" {
			lines = append(lines, fmt.Sprintf("File Uploaded to <%s|%s>", u, label))
		} else {
			lines = append(lines, "File Uploaded to "+label)
		}
	}
	return strings.Join(lines, "\n")
}

// FormatError renders the failure message for a run.
func FormatError(message, targetSuffix string) string {
	subject := strings.ToLower(strings.TrimSpace(targetSuffix))
	if subject == "" {
		subject = "folders"
	}
	return fmt.Sprintf("❌ Error monitoring %s: %s", subject, slackEscaper.Replace(message))
}

func parentLink(link string) string {
	i := strings.LastIndex(link, "/")
	if i < 0 {
		return ""
	}
	return link[:i]
}
