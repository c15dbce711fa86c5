package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"folderwatch/internal/watch"
)

// DefaultGraphBaseURL is the Microsoft Graph v1.0 endpoint.
const DefaultGraphBaseURL = "https://graph.microsoft.com/v1.0"

// DefaultGraphDrivePath addresses the signed-in user's OneDrive.
// App-only tokens need "/users/<upn>/drive" or "/drives/<id>" instead.
const DefaultGraphDrivePath = "/me/drive"

const graphSelect = "id,name,folder,lastModifiedDateTime,webUrl,parentReference"

// GraphDrive reads OneDrive / SharePoint folders through Microsoft Graph.
// The http.Client must attach a valid bearer token (see NewGraphHTTPClient).
type GraphDrive struct {
	client    *http.Client
	baseURL   string
	drivePath string
}

// NewGraphDrive creates a Graph-backed drive. Empty baseURL and drivePath
// take the defaults.
func NewGraphDrive(client *http.Client, baseURL, drivePath string) *GraphDrive {
	if baseURL == "" {
		baseURL = DefaultGraphBaseURL
	}
	if drivePath == "" {
		drivePath = DefaultGraphDrivePath
	}
	return &GraphDrive{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		drivePath: "/" + strings.Trim(drivePath, "/"),
	}
}

// GraphError is a non-2xx response from Graph.
type GraphError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *GraphError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("graph request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("graph request failed with status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

type graphItem struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Folder *struct {
		ChildCount int `json:"childCount"`
	} `json:"folder"`
	LastModifiedDateTime *time.Time `json:"lastModifiedDateTime"`
	WebURL               *string    `json:"webUrl"`
	ParentReference      *struct {
		Path *string `json:"path"`
	} `json:"parentReference"`
}

type graphPage struct {
	Value    []graphItem `json:"value"`
	NextLink string      `json:"@odata.nextLink"`
}

type graphErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ListChildren returns all children of folderID, following @odata.nextLink.
func (g *GraphDrive) ListChildren(ctx context.Context, folderID string) ([]*watch.DriveItem, error) {
	return g.list(ctx, folderID, "")
}

// FindChildren queries children of folderID with an OData name filter.
// Graph compares names case-insensitively, so callers must re-check.
func (g *GraphDrive) FindChildren(ctx context.Context, folderID, name string) ([]*watch.DriveItem, error) {
	return g.list(ctx, folderID, "name eq '"+strings.ReplaceAll(name, "'", "''")+"'")
}

func (g *GraphDrive) list(ctx context.Context, folderID, filter string) ([]*watch.DriveItem, error) {
	next := g.childrenURL(folderID) + "?$select=" + queryEscape(graphSelect)
	if filter != "" {
		next += "&$filter=" + queryEscape(filter)
	}

	var items []*watch.DriveItem
	for next != "" {
		page, err := g.getPage(ctx, next)
		if err != nil {
			return nil, err
		}
		for i := range page.Value {
			items = append(items, toDriveItem(&page.Value[i]))
		}
		next = page.NextLink
	}
	return items, nil
}

func (g *GraphDrive) childrenURL(folderID string) string {
	if folderID == watch.RootFolderID {
		return g.baseURL + g.drivePath + "/root/children"
	}
	return g.baseURL + g.drivePath + "/items/" + url.PathEscape(folderID) + "/children"
}

func (g *GraphDrive) getPage(ctx context.Context, rawURL string) (*graphPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building graph request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling graph: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gerr := &GraphError{StatusCode: resp.StatusCode}
		var body graphErrorBody
		if data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil && json.Unmarshal(data, &body) == nil {
			gerr.Code = body.Error.Code
			gerr.Message = body.Error.Message
		}
		return nil, gerr
	}

	var page graphPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding graph response: %w", err)
	}
	return &page, nil
}

func toDriveItem(gi *graphItem) *watch.DriveItem {
	item := &watch.DriveItem{
		ID:         gi.ID,
		Name:       gi.Name,
		IsFolder:   gi.Folder != nil,
		ModifiedAt: gi.LastModifiedDateTime,
		WebURL:     gi.WebURL,
	}
	if gi.ParentReference != nil {
		item.ParentPath = gi.ParentReference.Path
	}
	return item
}

// queryEscape escapes an OData query value; spaces become %20 rather than '+'.
func queryEscape(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

// Compile-time check that GraphDrive implements watch.Drive interface
var _ watch.Drive = (*GraphDrive)(nil)
